package images

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"
)

// uploadForm 上传表单，file 字段单独读取
type uploadForm struct {
	AlbumID    uint   `form:"album_id"`
	AlbumTitle string `form:"album_title"`
	Title      string `form:"title"`
	Source     string `form:"source"`
}

// cropForm 裁剪表单，position 可重复或逗号分隔
type cropForm struct {
	Shape    string   `form:"shape"`
	Position []string `form:"position"`
}

// parseForm 解析 urlencoded 或 multipart 表单
func parseForm(c *gin.Context, maxMemory int64) (url.Values, error) {
	err := c.Request.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = c.Request.ParseForm()
	}
	if err != nil {
		return nil, err
	}
	return c.Request.PostForm, nil
}

// decodeForm 把表单值解码到带 form 标签的结构体
// 单值字段取第一个值，切片字段保留全部值
func decodeForm(values url.Values, out interface{}) error {
	input := make(map[string]interface{}, len(values))
	for key, v := range values {
		switch len(v) {
		case 0:
		case 1:
			input[key] = v[0]
		default:
			input[key] = []string(v)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid form: %w", err)
	}
	return nil
}

package cmd

import (
	"log"
	"os"

	"github.com/anoixa/imagebank/config"
	"github.com/anoixa/imagebank/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imagebank",
	Short: "A content-addressed image store with thumbnails and crops",
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (eg: /etc/imagebank/.env)")
	err := viper.BindPFlag("config_file_path", rootCmd.PersistentFlags().Lookup("config"))
	if err != nil {
		return
	}
}

// newContainer 加载配置并初始化依赖容器，失败时直接退出
func newContainer() *app.Container {
	config.InitConfig()
	container := app.NewContainer(config.Get())
	if err := container.Init(); err != nil {
		_ = container.Close()
		log.Fatalf("Failed to initialize container: %v", err)
	}
	return container
}

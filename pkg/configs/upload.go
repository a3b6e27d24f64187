package configs

import "github.com/spf13/viper"

const (
	DefaultUploadMaxFileSize = 50 << 20 // 单文件上限 50MiB
	DefaultUploadMaxFiles    = 20       // 单次请求文件数上限
)

// UploadConfig 上传限制.
type UploadConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size" rule:"min=1"`
	MaxFiles    int   `mapstructure:"max_files"     rule:"min=1"`
	// EnforcePDF 服务端嗅探文件头，拒绝非 PDF 内容.
	EnforcePDF bool `mapstructure:"enforce_pdf"`
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_file_size", DefaultUploadMaxFileSize)
	v.SetDefault("upload.max_files", DefaultUploadMaxFiles)
	v.SetDefault("upload.enforce_pdf", true)
}

package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxFilenameLength 上传文件名最大长度
	MaxFilenameLength = 120

	// MaxJobDescriptionLength 岗位描述预览最大长度
	MaxJobDescriptionLength = 150
)

// maskPIILookup 需要掩码处理的关键字映射
var maskPIILookup = map[string]bool{
	"email":  true,
	"phone":  true,
	"name":   true,
	"secret": true,
	"token":  true,
	"key":    true,
}

// SafeAttributeValue 确保属性值安全，不包含敏感信息。
// 名称命中敏感关键字时返回掩码值，否则按 maxLength 截断。
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 对个人敏感信息进行掩码处理
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)

	if length <= 1 {
		return "*"
	}
	if length <= 4 {
		if length == 2 {
			return string(runes[0:1]) + "*"
		}
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}

	// "jane@example.com" -> "ja************om"
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 截断字符串，保留首尾并用省略号连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeFilename 安全处理文件名
func SafeFilename(name string) string {
	return TruncateString(name, MaxFilenameLength)
}

// SafeJobDescription 安全处理岗位描述
func SafeJobDescription(jd string) string {
	return TruncateString(jd, MaxJobDescriptionLength)
}

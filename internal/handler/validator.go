package handler

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Trans 全局翻译器，HTTP 与 WebSocket 两种传输的参数错误共用
var Trans ut.Translator

// InitTrans 初始化翻译器
// locale 参数指定需要初始化的语言，例如 "zh" 或 "en"
func InitTrans(locale string) (err error) {
	if binding.Validator == nil {
		binding.Validator = &defaultValidator{validator: validator.New()}
	}

	// 修改 gin 框架中的 Validator 引擎属性，实现自定制
	// binding.Validator.Engine() 返回的是 interface{}，需要断言为 *validator.Validate 类型
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {

		// 错误信息使用 json tag（如 reply_to）而不是结构体字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		zhT := zh.New()
		enT := en.New()
		// 英文为 fallback
		uni := ut.New(enT, zhT, enT)

		var ok bool
		Trans, ok = uni.GetTranslator(locale)
		if !ok {
			return fmt.Errorf("uni.GetTranslator(%s) failed", locale)
		}

		switch locale {
		case "zh":
			err = zh_translations.RegisterDefaultTranslations(v, Trans)
		default:
			err = en_translations.RegisterDefaultTranslations(v, Trans)
		}
	}
	return
}

// RemoveTopStruct 去除提示信息中的结构体名称，如 "PostMessageRequest.content" -> "content"
func RemoveTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string)
	for field, err := range fields {
		res[field[strings.Index(field, ".")+1:]] = err
	}
	return res
}

// validationMessage 把校验错误拼成一行，用于 WebSocket error 帧
func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || Trans == nil {
		return err.Error()
	}
	fields := RemoveTopStruct(validationErrs.Translate(Trans))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fields[k])
	}
	return strings.Join(parts, "; ")
}

// defaultValidator binding.Validator 为 nil 时的兜底实现
type defaultValidator struct {
	validator *validator.Validate
}

// ValidateStruct 实现 StructValidator 接口的 ValidateStruct 方法
func (v *defaultValidator) ValidateStruct(obj interface{}) error {
	return v.validator.Struct(obj)
}

// Engine 实现 StructValidator 接口的 Engine 方法
func (v *defaultValidator) Engine() interface{} {
	return v.validator
}

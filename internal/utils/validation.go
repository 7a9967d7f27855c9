package utils

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// NonFieldErrors 与具体字段无关的错误键
const NonFieldErrors = "non_field_errors"

// FieldErrors 字段 -> 错误信息列表
type FieldErrors map[string][]string

// Add 追加一条错误
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

var registerOnce sync.Once

// registerTagNames 校验错误里的字段名使用 json 标签
func registerTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// BindJSON 解析并校验请求体，失败时直接写 400 并返回 false
// 空请求体按 {} 处理，让必填校验给出字段错误
func BindJSON(c *gin.Context, obj interface{}) bool {
	registerTagNames()

	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return true
	}

	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		BadRequest(c, TranslateValidation(verrs))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = NonFieldErrors
		}
		BadRequest(c, FieldErrors{field: {"Incorrect type."}})
	default:
		BadRequest(c, gin.H{"detail": "JSON parse error - " + err.Error()})
	}
	return false
}

// TranslateValidation 把 validator 错误转换成字段错误
func TranslateValidation(verrs validator.ValidationErrors) FieldErrors {
	out := FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "url", "http_url":
		return "Enter a valid URL."
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

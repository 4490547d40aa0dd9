package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// fieldMessages maps struct fields to the message shown to the user.
var fieldMessages = map[string]string{
	"CompanyName":        "会社名を入力してください",
	"Representative":     "代表者名を入力してください",
	"CompanyAddress":     "会社住所を入力してください",
	"Positions":          "少なくとも1つの役職を設定してください",
	"Name":               "役職名を入力してください",
	"ImplementationDate": "実施日をYYYY-MM-DD形式で入力してください",
	"Status":             "ステータスが不正です",
	"Title":              "件名を入力してください",
	"Destination":        "出張先を入力してください",
	"Purpose":            "出張目的を入力してください",
	"StartDate":          "出張開始日をYYYY-MM-DD形式で入力してください",
	"EndDate":            "出張終了日をYYYY-MM-DD形式で入力してください",
	"Email":              "メールアドレスを正しく入力してください",
	"Password":           "パスワードは6文字以上で入力してください",
}

// validateStruct runs the struct tags of v and converts the first failure into a ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return validationError("input", err.Error())
	}

	fe := errs[0]
	field := strings.SplitN(fe.Namespace(), ".", 2)
	name := fe.Field()
	if len(field) == 2 {
		name = field[1]
	}

	message, ok := fieldMessages[fe.StructField()]
	if !ok {
		switch fe.Tag() {
		case "gte", "min":
			message = "0以上の値を入力してください"
		default:
			message = "入力内容が不正です"
		}
	}

	return validationError(name, message)
}

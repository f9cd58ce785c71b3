// Package validate registers the binding rules the catalog needs on gin's validator.
package validate

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// Register installs the custom tags. Safe to call more than once.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isbn", isbnRule)
		_ = v.RegisterValidation("role", roleRule)
	})
}

// isbnRule accepts ISBN-10 or ISBN-13, hyphens and spaces ignored, checksum included.
func isbnRule(fl validator.FieldLevel) bool {
	return ValidISBN(fl.Field().String())
}

func roleRule(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "MEMBER", "LIBRARIAN", "ADMIN":
		return true
	}
	return false
}

func ValidISBN(s string) bool {
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	switch len(s) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			c := s[i]
			var d int
			switch {
			case c >= '0' && c <= '9':
				d = int(c - '0')
			case i == 9 && (c == 'X' || c == 'x'):
				d = 10
			default:
				return false
			}
			sum += d * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i := 0; i < 13; i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return false
			}
			d := int(c - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		return sum%10 == 0
	}
	return false
}

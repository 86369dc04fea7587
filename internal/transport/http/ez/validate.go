package ez

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"jobportal-crm/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators adds the `leadstatus` and `leadsource` binding tags to
// gin's validator. Empty values pass; pair with `required` where needed.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("leadstatus", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || domain.LeadStatus(s).Valid()
		})
		_ = v.RegisterValidation("leadsource", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || domain.LeadSource(s).Valid()
		})
	})
}

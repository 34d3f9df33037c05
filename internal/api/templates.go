package api

import (
	"embed"         // Embedded page templates
	"html/template" // HTML escaping templates

	"mock_trading/internal/domain" // Money formatting

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Decimal amounts
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// templateFuncs are available to every page
var templateFuncs = template.FuncMap{
	"money": domain.FormatMoney,
	"value": func(price decimal.Decimal, qty int64) decimal.Decimal {
		return price.Mul(decimal.NewFromInt(qty)) // Position value at purchase price
	},
}

// LoadTemplates parses the embedded pages into the router
func LoadTemplates(r *gin.Engine) {
	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl"))
	r.SetHTMLTemplate(tmpl)
}

package tools

import (
	"net/url"
	"regexp"
	"strings"
)

var instanceNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidateInstanceName: o nome vai no path das chamadas ao Gateway.
func ValidateInstanceName(name string) bool {
	return instanceNameRe.MatchString(name)
}

// NormalizeGatewayURL aceita só http(s) com host e remove a barra final.
func NormalizeGatewayURL(raw string) (string, bool) {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return base, false
	}
	return base, true
}

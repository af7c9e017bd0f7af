package httpapi

import (
	"strings"

	"github.com/roach88/memento/internal/model"
)

// clientEnv extracts a coarse device description from a User-Agent header.
// Unrecognized values are left empty.
func clientEnv(ua string) model.ClientEnv {
	env := model.ClientEnv{DeviceType: deviceType(ua)}

	switch {
	case strings.Contains(ua, "Windows"):
		env.OS = "Windows"
	case strings.Contains(ua, "Android"):
		env.OS = "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		env.OS = "iOS"
	case strings.Contains(ua, "Mac OS X"):
		env.OS = "OS X"
	case strings.Contains(ua, "CrOS"):
		env.OS = "Chrome OS"
	case strings.Contains(ua, "Linux"):
		env.OS = "Linux"
	}

	// Order matters: Edge and Opera also claim Chrome, Chrome claims Safari.
	for _, b := range []struct{ name, token string }{
		{"Edge", "Edg/"},
		{"Opera", "OPR/"},
		{"Firefox", "Firefox/"},
		{"Chrome", "Chrome/"},
		{"Safari", "Version/"},
	} {
		if v, ok := productVersion(ua, b.token); ok {
			env.Browser = b.name
			env.BrowserVersion = v
			break
		}
	}
	return env
}

func deviceType(ua string) string {
	switch {
	case ua == "":
		return "unknown"
	case strings.Contains(ua, "iPad"), strings.Contains(ua, "Tablet"):
		return "tablet"
	case strings.Contains(ua, "Mobi"), strings.Contains(ua, "iPhone"):
		return "mobile"
	}
	return "desktop"
}

// productVersion returns the version following token, up to the next space.
func productVersion(ua, token string) (string, bool) {
	i := strings.Index(ua, token)
	if i < 0 {
		return "", false
	}
	v := ua[i+len(token):]
	if j := strings.IndexByte(v, ' '); j >= 0 {
		v = v[:j]
	}
	return v, true
}

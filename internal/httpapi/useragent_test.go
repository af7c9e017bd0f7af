package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/memento/internal/model"
)

func TestClientEnv(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want model.ClientEnv
	}{
		{
			name: "desktop chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
			want: model.ClientEnv{OS: "Windows", Browser: "Chrome", BrowserVersion: "129.0.0.0", DeviceType: "desktop"},
		},
		{
			name: "mac firefox",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 14.6; rv:131.0) Gecko/20100101 Firefox/131.0",
			want: model.ClientEnv{OS: "OS X", Browser: "Firefox", BrowserVersion: "131.0", DeviceType: "desktop"},
		},
		{
			name: "iphone safari",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
			want: model.ClientEnv{OS: "iOS", Browser: "Safari", BrowserVersion: "17.6", DeviceType: "mobile"},
		},
		{
			name: "ipad",
			ua:   "Mozilla/5.0 (iPad; CPU OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
			want: model.ClientEnv{OS: "iOS", Browser: "Safari", BrowserVersion: "17.6", DeviceType: "tablet"},
		},
		{
			name: "android edge",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Mobile Safari/537.36 EdgA/129.0.0.0 Edg/129.0.2792.84",
			want: model.ClientEnv{OS: "Android", Browser: "Edge", BrowserVersion: "129.0.2792.84", DeviceType: "mobile"},
		},
		{
			name: "empty",
			ua:   "",
			want: model.ClientEnv{DeviceType: "unknown"},
		},
		{
			name: "curl",
			ua:   "curl/8.5.0",
			want: model.ClientEnv{DeviceType: "desktop"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientEnv(tt.ua))
		})
	}
}

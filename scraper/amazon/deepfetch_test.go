package amazon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.amazon.co.jp/dp/B0TEST0001", "B0TEST0001", false},
		{"https://www.amazon.co.jp/Quiet-Fan/dp/B0TEST0002/ref=sr_1_1?keywords=fan", "B0TEST0002", false},
		{"https://www.amazon.co.jp/gp/product/4873119693", "4873119693", false},
		{"https://www.amazon.co.jp/dp/b0lowercase", "", true},
		{"https://www.amazon.co.jp/s?k=fan", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractASIN(tt.url)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNoASIN, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}

func TestCriticalReviewsURL(t *testing.T) {
	assert.Equal(t,
		"https://www.amazon.co.jp/product-reviews/B0TEST0001/ref=cm_cr_arp_d_viewopt_sr?ie=UTF8&filterByStar=critical&sortBy=recent",
		CriticalReviewsURL("https://www.amazon.co.jp", "B0TEST0001"))
}

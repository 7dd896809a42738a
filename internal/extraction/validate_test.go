package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "valid vietnamese sentence", text: "Toán 9 điểm", wantErr: false},
		{name: "valid english sentence", text: "Got 8.5 in Physics", wantErr: false},
		{name: "too short", text: "9đ", wantErr: true},
		{name: "whitespace only", text: "   ", wantErr: true},
		{name: "no digit", text: "điểm môn toán", wantErr: true},
		{name: "bare integer", text: "9", wantErr: true},
		{name: "bare decimal", text: "8.5", wantErr: true},
		{name: "greeting", text: "hello 123", wantErr: true},
		{name: "vietnamese greeting", text: "xin chào 9", wantErr: true},
		{name: "decimal inside sentence", text: "Lý 7.5", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text, "vi")
			if tt.wantErr {
				require.Error(t, err)
				var appErr *appErrors.Error
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTextLocalizedMessages(t *testing.T) {
	viErr := ValidateText("9", "vi")
	enErr := ValidateText("9", "en")

	require.Error(t, viErr)
	require.Error(t, enErr)
	assert.NotEqual(t, viErr.Error(), enErr.Error())
}

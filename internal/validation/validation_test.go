package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "5e9d0d95eda69973a809d1ec", false},
		{"valid digits only", "012345678901234567890123", false},
		{"empty", "", true},
		{"too short", "5e9d0d95eda69973a809d1e", true},
		{"too long", "5e9d0d95eda69973a809d1ec0", true},
		{"uppercase", "5E9D0D95EDA69973A809D1EC", true},
		{"non hex", "5e9d0d95eda69973a809d1eg", true},
		{"path traversal", "../../../../etc/passwd000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAPIVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"v4", false},
		{"v5", false},
		{"v10", false},
		{"4", true},
		{"v4.1", true},
		{"v4.0.0", true},
		{"", true},
		{"latest", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateAPIVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	type payload struct {
		RocketID string `validate:"required,objectid"`
		Version  string `validate:"omitempty,apiversion"`
		Page     int    `validate:"min=1"`
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(payload{RocketID: "5e9d0d95eda69973a809d1ec", Version: "v4", Page: 1}))
	})

	t.Run("collects every failing field", func(t *testing.T) {
		err := Struct(payload{RocketID: "falcon9", Version: "4.0", Page: 0})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "payload.RocketID")
		assert.Contains(t, err.Error(), "payload.Version")
		assert.Contains(t, err.Error(), "payload.Page")
	})

	t.Run("non struct", func(t *testing.T) {
		assert.Error(t, Struct("not a struct"))
	})
}

package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shadowtalk/internal/services"
)

func TestClassifyGender(t *testing.T) {
	cases := []struct {
		input    string
		expected services.Gender
	}{
		{"m", services.GenderMale},
		{"male", services.GenderMale},
		{"Man", services.GenderMale},
		{"BOY", services.GenderMale},
		{"guy", services.GenderMale},
		{"f", services.GenderFemale},
		{"female", services.GenderFemale},
		{"Woman", services.GenderFemale},
		{"girl", services.GenderFemale},
		{"lady", services.GenderFemale},
		{" male ", services.GenderMale},
		{"", services.GenderUnspecified},
		{"   ", services.GenderUnspecified},
		{"nonbinary", services.GenderOther},
		{"attack-helicopter", services.GenderOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, services.ClassifyGender(tc.input), "input %q", tc.input)
	}
}

func TestComplementary(t *testing.T) {
	assert.True(t, services.Complementary(services.GenderMale, services.GenderFemale))
	assert.True(t, services.Complementary(services.GenderFemale, services.GenderMale))
	assert.False(t, services.Complementary(services.GenderMale, services.GenderMale))
	assert.False(t, services.Complementary(services.GenderFemale, services.GenderFemale))
	assert.False(t, services.Complementary(services.GenderMale, services.GenderOther))
	assert.False(t, services.Complementary(services.GenderUnspecified, services.GenderFemale))
}

func TestGenderString(t *testing.T) {
	assert.Equal(t, "male", services.GenderMale.String())
	assert.Equal(t, "female", services.GenderFemale.String())
	assert.Equal(t, "other", services.GenderOther.String())
	assert.Equal(t, "unspecified", services.GenderUnspecified.String())
}

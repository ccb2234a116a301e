package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAppName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"TaskRay | Salesforce AppExchange", "TaskRay"},
		{"  Extreme   Dynamic Forms  ", "Extreme Dynamic Forms"},
		{"Certinia PSA | Salesforce", "Certinia PSA"},
		{"Salesforce - Maps Pro", "Maps Pro"},
		{"Salesforce Maps", "Salesforce Maps"},
		{"DocuSign - AppExchange", "DocuSign"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, CleanAppName(tc.in), "CleanAppName(%q)", tc.in)
	}
}

func TestCleanDeveloper(t *testing.T) {
	assert.Equal(t, "TaskRay", CleanDeveloper("By TaskRay"))
	assert.Equal(t, "Astrea IT Services", CleanDeveloper("  by   Astrea IT   Services "))
	assert.Equal(t, "Bystander Labs", CleanDeveloper("Bystander Labs"))
}

func TestDeveloperFromText(t *testing.T) {
	testCases := []struct {
		text string
		want string
	}{
		{"TaskRay is the top rated project management app", "TaskRay"},
		{"A great app. By Certinia for services teams", "Certinia"},
		{"Built by Acme for sales", "Acme"},
		{"Roambee helps teams track shipments", "Roambee"},
		{"by the book", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, DeveloperFromText(tc.text), "DeveloperFromText(%q)", tc.text)
	}
}

func TestTextWidth(t *testing.T) {
	short := TextWidth("By Certinia", 27, "Poppins", false)
	long := TextWidth("By Very Long Company Name Inc Ltd", 27, "Poppins", false)

	assert.InDelta(t, 11*27*0.6*1.2, short, 0.001)
	assert.Greater(t, long, short)
	assert.Greater(t, TextWidth("By A", 27, "Poppins", true), TextWidth("By A", 27, "Poppins", false))
	assert.InDelta(t, TextWidth("abc", 10, "Unknown", false), TextWidth("abc", 10, "Poppins", false), 0.001)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 150.0, Clamp(90, 150, 400))
	assert.Equal(t, 400.0, Clamp(612.5, 150, 400))
	assert.Equal(t, 222.0, Clamp(222, 150, 400))
}

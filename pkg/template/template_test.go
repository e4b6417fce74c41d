package template

import (
	"testing"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"Hi {{lead.name}}", "Hi {{.lead.name}}"},
		{"Hi {{ contact.name }}", "Hi {{ .contact.name }}"},
		{"Hi {{.lead.name}}", "Hi {{.lead.name}}"},
		{"{{- lead.name}}", "{{- .lead.name}}"},
		{"From {{workflow.name}}", "From {{.workflow.name}}"},
		{"no templates", "no templates"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestContactToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		field    string
		expected bool
	}{
		{"{{lead.email}}", "email", true},
		{"{{ contact.phone }}", "phone", true},
		{"{{email}}", "email", true},
		{"{{.lead.phone}}", "phone", true},
		{"  {{lead.email}}  ", "email", true},
		{"ada@example.com", "", false},
		{"{{lead.name}}", "", false},
		{"Hi {{lead.email}}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			field, ok := ContactToken(tt.input)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestRenderWithContext(t *testing.T) {
	t.Parallel()

	executionCtx := &models.ExecutionContext{
		WorkflowID:   "wf-1",
		WorkflowName: "Spring promo",
		EnrollmentID: "enr-1",
		Lead:         models.Lead{Name: "Ada Lovelace", Email: "ada@example.com"},
	}

	result, err := RenderWithContext("Hi {{firstName lead.name}}, welcome to {{workflow.name}}", executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada, welcome to Spring promo", result)

	result, err = RenderWithContext(`Call us at {{default "our office" .lead.phone}}`, executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "Call us at our office", result)
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	_, err := Render("Hi {{.lead.name", map[string]any{})
	require.Error(t, err)

	_, err = Render("Hi {{.lead.nickname}}", map[string]any{"lead": map[string]any{"name": "Ada"}})
	require.Error(t, err)

	result, err := Render("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", result)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
		wantAny bool
	}{
		{name: "plain text", input: "Thanks for calling"},
		{name: "shorthand reference", input: "Hi {{lead.name}}"},
		{name: "dotted reference", input: "Hi {{.contact.phone}}"},
		{name: "helper functions", input: `Hi {{firstName lead.name}} from {{default "us" .workflow.name}}`},
		{name: "conditional", input: "{{if lead.name}}Hi {{lead.name}}{{else}}Hello{{end}}"},
		{name: "root variable", input: "Ref {{$.enrollment.id}}"},
		{name: "unknown lead field", input: "Hi {{lead.firstName}}", wantErr: ErrUnknownReference},
		{name: "unknown root", input: "Hi {{.company.name}}", wantErr: ErrUnknownReference},
		{name: "too deep", input: "Hi {{.lead.name.first}}", wantErr: ErrUnknownReference},
		{name: "unknown field in condition", input: "{{if .lead.vip}}VIP{{end}}", wantErr: ErrUnknownReference},
		{name: "undefined function", input: "Hi {{lead.phone token}}", wantAny: true},
		{name: "unclosed action", input: "Hi {{", wantAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Check(tt.input)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestCheck_AgreesWithRender(t *testing.T) {
	t.Parallel()

	executionCtx := &models.ExecutionContext{
		WorkflowID:   "wf-1",
		WorkflowName: "Missed call",
		EnrollmentID: "enr-1",
		Lead:         models.Lead{Name: "Ada", Phone: "+15550100"},
	}

	for _, input := range []string{
		"Hi {{lead.name}}",
		"{{workflow.name}} / {{enrollment.id}} / {{contact.phone}}",
		"{{if lead.email}}mail{{else}}text{{end}}",
	} {
		require.NoError(t, Check(input), input)

		_, err := RenderWithContext(input, executionCtx)
		require.NoError(t, err, input)
	}
}

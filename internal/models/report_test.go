package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportHasEveryCategory(t *testing.T) {
	r := NewReport()
	for _, c := range Categories() {
		assert.NotNil(t, r.Get(c), "category %s should be present", c)
		assert.Empty(t, r.Get(c))
	}
	assert.Equal(t, 0, r.Len())
}

func TestReportMarshalKeepsCategoryOrder(t *testing.T) {
	r := NewReport()
	r.Append(CategorySocialMediaLinks, Finding{Name: "Social Media Links", Version: "Facebook", Icon: "📱"})
	r.Append(CategoryFrameworks, Finding{Name: "React", Version: "18.2.0", Icon: "⚛️"})

	data, err := json.Marshal(r)
	require.NoError(t, err)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, `{"frameworks":[{"name":"React"`), body)
	assert.Less(t, strings.Index(body, `"whois"`), strings.Index(body, `"emails"`))
	assert.True(t, strings.HasSuffix(body, `"socialMediaLinks":[{"name":"Social Media Links","version":"Facebook","icon":"📱"}]}`))
}

func TestReportUnmarshalIgnoresUnknownCategories(t *testing.T) {
	var r Report
	err := json.Unmarshal([]byte(`{"frameworks":[{"name":"Vue","version":"3.4.0","icon":"🟢"}],"bogus":[{"name":"x"}]}`), &r)
	require.NoError(t, err)

	f, ok := r.Find(CategoryFrameworks, "Vue")
	require.True(t, ok)
	assert.Equal(t, "3.4.0", f.Version)
	assert.Equal(t, 1, r.Len())
	assert.NotNil(t, r.Get(CategoryTrackers))
}

func TestReportCloneIsDeep(t *testing.T) {
	r := NewReport()
	r.Append(CategoryWhois, Finding{Name: "Domain", Version: "example.com"})

	cp := r.Clone()
	cp.Append(CategoryWhois, Finding{Name: "Registrar", Version: "Example Registrar"})

	assert.Len(t, r.Get(CategoryWhois), 1)
	assert.Len(t, cp.Get(CategoryWhois), 2)
}

func TestZeroReportAppend(t *testing.T) {
	var r Report
	r.Append(CategoryForms, Finding{Name: "Forms Detected", Version: "1 forms"})
	assert.Equal(t, 1, r.Len())
}

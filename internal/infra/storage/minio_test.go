package storage

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	ep, _ := url.Parse("https://minio.internal:9000")
	assert.Equal(t,
		"https://minio.internal:9000/exports/org-1/r-1/AssurePro_Audit_P-7.pdf",
		ObjectURL(ep, "exports", "org-1/r-1/AssurePro_Audit_P-7.pdf"))
}

package banner

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	Print(&buf, SystemStatus{
		Addr:           ":8080",
		PostgresStatus: true,
		MailProvider:   "log",
		AdminCount:     4,
		SuperAdmins:    2,
		MaxSuperAdmins: 3,
		CooldownWindow: "1m0s",
		BootstrapEmail: "root@example.com",
	})

	out := buf.String()
	assert.Contains(t, out, "2 / 3")
	assert.Contains(t, out, "disconnected")
	assert.Contains(t, out, "invitation mails are only written to the log")
	assert.Contains(t, out, "root@example.com")
}

package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmail(t *testing.T) {
	in := BuildEmail("noreply@jobtrail.dev", "sam@example.com", "3 follow-ups due", "plain", "<p>html</p>")

	assert.Equal(t, "noreply@jobtrail.dev", aws.ToString(in.Source))
	assert.Equal(t, []string{"sam@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "3 follow-ups due", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "plain", aws.ToString(in.Message.Body.Text.Data))
	require.NotNil(t, in.Message.Body.Html)
	assert.Equal(t, "<p>html</p>", aws.ToString(in.Message.Body.Html.Data))
}

func TestBuildEmail_TextOnly(t *testing.T) {
	in := BuildEmail("a@b.c", "d@e.f", "s", "t", "")
	assert.Nil(t, in.Message.Body.Html)
}

func TestBuildSMS(t *testing.T) {
	in := BuildSMS("+15551234567", "You have 2 overdue follow-ups")

	assert.Equal(t, "+15551234567", aws.ToString(in.PhoneNumber))
	assert.Equal(t, "You have 2 overdue follow-ups", aws.ToString(in.Message))
	attr, ok := in.MessageAttributes["AWS.SNS.SMS.SMSType"]
	require.True(t, ok)
	assert.Equal(t, "Transactional", aws.ToString(attr.StringValue))
}

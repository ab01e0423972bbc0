package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callkaidsroofing/lead-intake/internal/events"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func sampleEvent() events.LeadSubmittedV1 {
	return events.LeadSubmittedV1{
		EventID: "evt-42",
		Lead: leads.Lead{
			Reference: "LEAD-1-ABCDE",
			Name:      "Jane",
			Phone:     "0412345678",
			Suburb:    "Berwick",
			Service:   leads.ServiceLeakDetection,
		},
	}
}

func TestSQSPublisher_HandleLeadSubmitted(t *testing.T) {
	client := &fakeSQS{}
	pub := newSQSPublisher(client, "https://sqs.ap-southeast-2.amazonaws.com/123/leads", nil)

	require.NoError(t, pub.HandleLeadSubmitted(context.Background(), sampleEvent()))
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "https://sqs.ap-southeast-2.amazonaws.com/123/leads", aws.ToString(in.QueueUrl))
	assert.Nil(t, in.MessageGroupId)
	assert.Equal(t, events.TypeLeadSubmittedV1, aws.ToString(in.MessageAttributes["event_type"].StringValue))

	decoded, err := events.DecodeLeadSubmitted([]byte(aws.ToString(in.MessageBody)))
	require.NoError(t, err)
	assert.Equal(t, "LEAD-1-ABCDE", decoded.Lead.Reference)
}

func TestSQSPublisher_FIFOSetsDedupID(t *testing.T) {
	client := &fakeSQS{}
	pub := newSQSPublisher(client, "https://sqs.example/123/leads.fifo", nil)

	require.NoError(t, pub.HandleLeadSubmitted(context.Background(), sampleEvent()))
	in := client.inputs[0]
	assert.Equal(t, "leads", aws.ToString(in.MessageGroupId))
	assert.Equal(t, "evt-42", aws.ToString(in.MessageDeduplicationId))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &body))
	assert.Equal(t, "evt-42", body["event_id"])
}

func TestSQSPublisher_SendError(t *testing.T) {
	client := &fakeSQS{err: errors.New("throttled")}
	pub := newSQSPublisher(client, "https://sqs.example/123/leads", nil)

	err := pub.HandleLeadSubmitted(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSQSPublisher_PanicsWithoutURL(t *testing.T) {
	assert.Panics(t, func() { newSQSPublisher(&fakeSQS{}, "", nil) })
}

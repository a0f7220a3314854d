package dialer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/outreach-ai-platform/internal/hours"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
)

type recordingQueue struct {
	*MemoryQueue
	deleted []string
}

func (q *recordingQueue) Delete(ctx context.Context, receipt string) error {
	q.deleted = append(q.deleted, receipt)
	return q.MemoryQueue.Delete(ctx, receipt)
}

type callerFunc func(ctx context.Context, req CallRequest) (*CallResult, error)

func (f callerFunc) Call(ctx context.Context, req CallRequest) (*CallResult, error) { return f(ctx, req) }

func TestAutoDialQueuesDialableLeads(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	ctx := context.Background()
	ready := seedLead(t, repo, leads.CreateLeadRequest{Name: "Ready", Phone: "555"})
	calling := seedLead(t, repo, leads.CreateLeadRequest{Name: "Busy", Phone: "556", Status: leads.StatusCalling})
	booked := seedLead(t, repo, leads.CreateLeadRequest{Name: "Booked", Phone: "557", Status: leads.StatusAppointmentSet})

	q := NewMemoryQueue(10)
	res, err := NewEnqueuer(repo, q, nil, nil, nil).AutoDial(ctx, []int64{ready.ID, calling.ID, booked.ID, 99, ready.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{ready.ID}, res.Queued)
	assert.Equal(t, []int64{calling.ID, booked.ID, 99}, res.Skipped)
	assert.Equal(t, 1, q.Len())

	msgs, err := q.Receive(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	job, err := decodeJob(msgs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, ready.ID, job.LeadID)
	assert.NotEmpty(t, job.ID)
}

func TestAutoDialValidation(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	e := NewEnqueuer(repo, NewMemoryQueue(1), closed, nil, nil)

	_, err := e.AutoDial(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoLeadIDs)

	_, err = e.AutoDial(context.Background(), []int64{1})
	assert.ErrorIs(t, err, hours.ErrOutsideCallingHours)
}

func TestWorkerHandleAcksOnSuccessAndPermanentFailure(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{MemoryQueue: NewMemoryQueue(10)}

	outcomes := map[int64]error{
		1: nil,
		2: ErrLeadNotFound,
		3: errors.New("twilio: create call failed: status 503"),
		4: hours.ErrOutsideCallingHours,
	}
	var seen []int64
	w := NewWorker(q, callerFunc(func(ctx context.Context, req CallRequest) (*CallResult, error) {
		seen = append(seen, req.LeadID)
		if err := outcomes[req.LeadID]; err != nil {
			return nil, err
		}
		return &CallResult{CallSID: "CA1"}, nil
	}), nil, nil)

	for id := int64(1); id <= 4; id++ {
		body, err := encodeJob(NewJob(id, ""))
		require.NoError(t, err)
		w.Handle(ctx, Message{ID: "m", Body: body, ReceiptHandle: "r" + string(rune('0'+id))})
	}
	w.Handle(ctx, Message{ID: "bad", Body: "{", ReceiptHandle: "r9"})

	assert.Equal(t, []int64{1, 2, 3, 4}, seen)
	assert.Equal(t, []string{"r1", "r2", "r9"}, q.deleted)
}

func TestWorkerRunDrainsMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int64, 2)
	w := NewWorker(q, callerFunc(func(ctx context.Context, req CallRequest) (*CallResult, error) {
		done <- req.LeadID
		return &CallResult{CallSID: "CA1"}, nil
	}), nil, nil).WithReceiveWait(time.Second)

	for _, id := range []int64{7, 8} {
		body, err := encodeJob(NewJob(id, ""))
		require.NoError(t, err)
		require.NoError(t, q.Send(ctx, body))
	}
	go w.Run(ctx)

	got := map[int64]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			got[id] = true
		case <-time.After(3 * time.Second):
			t.Fatal("worker did not process jobs")
		}
	}
	assert.True(t, got[7] && got[8])
}

func TestMemoryQueueRedeliversUnacked(t *testing.T) {
	q := NewMemoryQueue(4).WithVisibilityTimeout(20 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, q.Send(ctx, "job"))

	first, err := q.Receive(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := q.Receive(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.NotEqual(t, first[0].ReceiptHandle, again[0].ReceiptHandle)
	require.NoError(t, q.Delete(ctx, again[0].ReceiptHandle))
	assert.Equal(t, 0, q.Len())
}

type fakeSQS struct {
	sent     []string
	deleted  []string
	messages []sqstypes.Message
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, aws.ToString(in.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("m1")}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if in.MaxNumberOfMessages > 10 || in.WaitTimeSeconds > 20 {
		return nil, errors.New("limits exceeded")
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue(t *testing.T) {
	fake := &fakeSQS{messages: []sqstypes.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String(`{"lead_id":3}`),
		ReceiptHandle: aws.String("rh1"),
	}}}
	q := NewSQSQueue(fake, "https://sqs.us-east-1.amazonaws.com/1/dial")
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "payload"))
	assert.Equal(t, []string{"payload"}, fake.sent)

	msgs, err := q.Receive(ctx, 50, 60)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{ID: "m1", Body: `{"lead_id":3}`, ReceiptHandle: "rh1"}, msgs[0])

	require.NoError(t, q.Delete(ctx, "rh1"))
	require.NoError(t, q.Delete(ctx, ""))
	assert.Equal(t, []string{"rh1"}, fake.deleted)
}

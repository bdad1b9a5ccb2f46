package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myexpenses/internal/amqp"
	"myexpenses/internal/core"
	"myexpenses/internal/csvcodec"
	"myexpenses/internal/log"
	"myexpenses/internal/records"
	"myexpenses/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishListChanged(_ context.Context, op string, count int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, op)
	return p.err
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 5, 9, 7, 3, 0, time.Local) }

func newService(t *testing.T, opts ...Option) (*ExpenseService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	store := records.NewStore(memory.New(), "", log.Discard())
	opts = append([]Option{WithPublisher(pub), WithClock(fixedNow), WithLogger(log.Discard())}, opts...)
	return NewExpenseService(store, opts...), pub
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)

	e, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: "12.34", Category: "Food", Description: "  pizza  "})
	require.NoError(t, err)

	want := core.Expense{Date: "2024-03-05", Time: "09:07:03", Amount: 12.3, Category: "Food", Description: "pizza"}
	assert.Equal(t, want, e)
	assert.Equal(t, []core.Expense{want}, svc.List(ctx))
	assert.Equal(t, []string{amqp.OpAppend}, pub.events)
}

func TestAddExpenseEmptyCategoryFallsBack(t *testing.T) {
	svc, _ := newService(t)
	e, err := svc.AddExpense(context.Background(), core.ExpenseInput{Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, core.FallbackCategory, e.Category)
}

func TestAddExpenseRejectsInvalidAmount(t *testing.T) {
	ctx := context.Background()
	for _, amount := range []string{"-5", "", "abc", "NaN", "Inf"} {
		svc, pub := newService(t)
		_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: amount, Category: "Food"})
		require.Error(t, err, amount)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
		assert.Equal(t, core.InvalidAmountMessage, core.UserMessage(err, ""))
		assert.Empty(t, svc.List(ctx), "list must be unchanged for %q", amount)
		assert.Empty(t, pub.events)
	}
}

func TestDeleteAt(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)
	for _, a := range []string{"1", "2", "3"} {
		_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: a, Category: "c" + a})
		require.NoError(t, err)
	}

	removed, err := svc.DeleteAt(ctx, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.DeleteAt(ctx, 5)
	require.NoError(t, err)
	assert.False(t, removed)

	list := svc.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].Category)
	assert.Equal(t, []string{amqp.OpAppend, amqp.OpAppend, amqp.OpAppend, amqp.OpDelete}, pub.events)
}

func TestClearEmptiesListAndSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: "4", Category: "Food"})
	require.NoError(t, err)
	require.False(t, svc.Summary(ctx).Empty())

	require.NoError(t, svc.Clear(ctx))
	assert.Equal(t, []core.Expense{}, svc.List(ctx))
	assert.True(t, svc.Summary(ctx).Empty())
}

func TestImportCSVAppends(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)
	_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: "1", Category: "Existing"})
	require.NoError(t, err)

	text := "Date,Time,Amount,Category,Description\n2024-01-01,12:00:00,3.50,Food,\"Lunch, extra\"\n"
	n, err := svc.ImportCSV(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list := svc.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "Existing", list[0].Category)
	assert.Equal(t, "Lunch, extra", list[1].Description)
	assert.Equal(t, 3.5, list[1].Amount)
	assert.Equal(t, amqp.OpImport, pub.events[len(pub.events)-1])
}

func TestImportCSVMalformedHeader(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.ImportCSV(ctx, "foo,bar\n1,2")
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, csvcodec.ErrMalformedHeader)
	assert.Contains(t, core.UserMessage(err, ""), "header")
	assert.Empty(t, svc.List(ctx))

	lenient, _ := newService(t, WithStrictHeader(false))
	n, err = lenient.ImportCSV(ctx, "foo,bar\n1,2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportCSVEmpty(t *testing.T) {
	svc, pub := newService(t)
	n, err := svc.ImportCSV(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.events)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	name, body := svc.ExportCSV(ctx)
	assert.Equal(t, "myexpenses_2024-03-05.csv", name)
	assert.Equal(t, "Date,Time,Amount,Category,Description", body)

	_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: "2.5", Category: "Food", Description: "a,b"})
	require.NoError(t, err)
	_, body = svc.ExportCSV(ctx)
	assert.True(t, strings.HasSuffix(body, "\n2024-03-05,09:07:03,2.5,Food,\"a,b\""), body)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, pub := newService(t)
	pub.err = errors.New("broker down")

	_, err := svc.AddExpense(ctx, core.ExpenseInput{Amount: "1", Category: "Food"})
	require.NoError(t, err)
	assert.Len(t, svc.List(ctx), 1)
}

func TestNilPublisher(t *testing.T) {
	store := records.NewStore(memory.New(), "", log.Discard())
	svc := NewExpenseService(store, WithLogger(log.Discard()))
	_, err := svc.AddExpense(context.Background(), core.ExpenseInput{Amount: "1"})
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

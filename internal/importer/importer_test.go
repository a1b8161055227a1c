package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
	"github.com/MrJamesThe3rd/txflow/internal/bus/memory"
	"github.com/MrJamesThe3rd/txflow/internal/event"
	"github.com/MrJamesThe3rd/txflow/internal/importer"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	"github.com/MrJamesThe3rd/txflow/internal/transaction/memstore"
)

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	source, target := uuid.New(), uuid.New()

	store := memstore.New()
	broker := memory.NewBroker()
	svc := importer.NewService(
		transaction.NewService(store, broker, event.TopicTransactionCreated, logging.Discard()),
		logging.Discard(),
	)

	file := "source;target;value\n" +
		source.String() + ";" + target.String() + ";100,00\n" +
		source.String() + ";" + target.String() + ";0\n" +
		source.String() + ";" + target.String() + ";x\n" +
		source.String() + ";" + target.String() + ";50,25\n"

	res, err := svc.Import(ctx, strings.NewReader(file))
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 3, res.Failed[0].Line)
	assert.ErrorIs(t, res.Failed[0], transaction.ErrValidation)
	assert.Equal(t, 4, res.Failed[1].Line)

	var totals []string

	for _, msg := range broker.Messages(event.TopicTransactionCreated) {
		ev, err := bus.Decode[event.TransactionCreated](msg.Value)
		require.NoError(t, err)
		totals = append(totals, ev.TotalValueDaily.String())
	}

	assert.Equal(t, []string{"0", "100"}, totals)
}

func TestService_ImportStopsOnStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")

	svc := importer.NewService(
		transaction.NewService(memstore.New().WithError(boom), memory.NewBroker(), event.TopicTransactionCreated, logging.Discard()),
		logging.Discard(),
	)

	file := "source,target,value\n" + uuid.NewString() + "," + uuid.NewString() + ",1\n"

	res, err := svc.Import(context.Background(), strings.NewReader(file))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "line 2")
	require.NotNil(t, res)
	assert.Empty(t, res.Created)
}

func TestService_ImportRejectsFileWithoutHeader(t *testing.T) {
	svc := importer.NewService(
		transaction.NewService(memstore.New(), memory.NewBroker(), event.TopicTransactionCreated, logging.Discard()),
		logging.Discard(),
	)

	_, err := svc.Import(context.Background(), strings.NewReader("a,b,c\n"))
	assert.ErrorIs(t, err, importer.ErrNoHeader)
}

package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/usbbench/host/hal"
	"github.com/ardnew/usbbench/pkg"
)

// =============================================================================
// Mock Provider for Testing
// =============================================================================

// mockProvider implements hal.Provider by queueing submitted requests.
type mockProvider struct {
	submitErr error
	pending   []hal.Request
}

func (m *mockProvider) Submit(r hal.Request) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.pending = append(m.pending, r)
	return nil
}

func (m *mockProvider) HandleEvents(ctx context.Context) error { return nil }

func (m *mockProvider) Close() error { return nil }

func nopHandler() CompletionHandler {
	return CompletionFunc(func(*Transfer) error { return nil })
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewBulkTransfer(t *testing.T) {
	buf := make([]byte, 64)
	tr, err := NewBulkTransfer(EndpointDataIn, buf, nopHandler())
	require.NoError(t, err)

	assert.Equal(t, EndpointDataIn, tr.Endpoint())
	assert.Equal(t, hal.TransferBulk, tr.Type())
	assert.Equal(t, 64, tr.Length())
	assert.Equal(t, 64, tr.Capacity())
	assert.Nil(t, tr.Packets())
	assert.Equal(t, StateBuilt, tr.State())
}

func TestNewBulkTransfer_Invalid(t *testing.T) {
	_, err := NewBulkTransfer(EndpointDataIn, make([]byte, 8), nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = NewBulkTransfer(EndpointDataIn, nil, nopHandler())
	assert.ErrorIs(t, err, pkg.ErrBufferTooSmall)
}

func TestNewIsochronousTransfer(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		count     int
		packetLen int
		length    int
		truncated int
	}{
		{"even", 2048, 16, 128, 2048, 0},
		{"remainder", 2050, 16, 128, 2048, 2},
		{"single", 100, 1, 100, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewIsochronousTransfer(EndpointISOIn, make([]byte, tt.size), tt.count, nopHandler())
			require.NoError(t, err)

			assert.Equal(t, hal.TransferIsochronous, tr.Type())
			assert.Equal(t, tt.length, tr.Length())
			assert.Equal(t, tt.size, tr.Capacity())
			assert.Equal(t, tt.truncated, tr.Truncated())
			assert.Len(t, tr.Buffer(), tt.length)
			require.Len(t, tr.Packets(), tt.count)
			for i, p := range tr.Packets() {
				assert.Equal(t, tt.packetLen, p.Length, "packet %d", i)
			}
		})
	}
}

func TestNewIsochronousTransfer_Invalid(t *testing.T) {
	_, err := NewIsochronousTransfer(EndpointISOIn, make([]byte, 64), 0, nopHandler())
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = NewIsochronousTransfer(EndpointISOIn, make([]byte, 8), 16, nopHandler())
	assert.ErrorIs(t, err, pkg.ErrBufferTooSmall)

	_, err = NewIsochronousTransfer(EndpointISOIn, make([]byte, 64), 4, nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestTransfer_SubmitComplete(t *testing.T) {
	var calls int
	h := CompletionFunc(func(tr *Transfer) error {
		calls++
		assert.Equal(t, StateCompleted, tr.State())
		return nil
	})

	buf := make([]byte, 32)
	tr, err := NewBulkTransfer(EndpointDataIn, buf, h)
	require.NoError(t, err)

	p := &mockProvider{}
	require.NoError(t, tr.Submit(p))
	assert.Equal(t, StateSubmitted, tr.State())
	assert.Equal(t, uint64(1), tr.Submissions())
	require.Len(t, p.pending, 1)

	copy(buf, "hello")
	require.NoError(t, tr.Complete(pkg.TransferStatusSuccess, 5))
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateCompleted, tr.State())
	assert.Equal(t, pkg.TransferStatusSuccess, tr.Outcome().Status)
	assert.Equal(t, []byte("hello"), tr.Data())

	// Resubmission from Completed is allowed.
	require.NoError(t, tr.Submit(p))
	assert.Equal(t, uint64(2), tr.Submissions())
	assert.Equal(t, 0, tr.Outcome().ActualLength)
}

func TestTransfer_CompleteClampsLength(t *testing.T) {
	tr, err := NewBulkTransfer(EndpointDataIn, make([]byte, 16), nopHandler())
	require.NoError(t, err)
	require.NoError(t, tr.Submit(&mockProvider{}))

	require.NoError(t, tr.Complete(pkg.TransferStatusSuccess, 999))
	assert.Equal(t, 16, tr.Outcome().ActualLength)

	require.NoError(t, tr.Submit(&mockProvider{}))
	require.NoError(t, tr.Complete(pkg.TransferStatusError, -4))
	assert.Equal(t, 0, tr.Outcome().ActualLength)
}

func TestTransfer_InvalidTransitions(t *testing.T) {
	tr, err := NewBulkTransfer(EndpointDataIn, make([]byte, 16), nopHandler())
	require.NoError(t, err)

	// Complete before submit.
	assert.ErrorIs(t, tr.Complete(pkg.TransferStatusSuccess, 0), pkg.ErrInvalidState)

	p := &mockProvider{}
	require.NoError(t, tr.Submit(p))

	// Double submit.
	assert.ErrorIs(t, tr.Submit(p), pkg.ErrInvalidState)
	assert.Len(t, p.pending, 1)
}

func TestTransfer_SubmitRejected(t *testing.T) {
	tr, err := NewBulkTransfer(EndpointDataIn, make([]byte, 16), nopHandler())
	require.NoError(t, err)

	p := &mockProvider{submitErr: pkg.ErrNoDevice}
	err = tr.Submit(p)
	assert.ErrorIs(t, err, pkg.ErrNoDevice)
	assert.Equal(t, StateFailed, tr.State())
	assert.Equal(t, uint64(0), tr.Submissions())

	// Failed is terminal.
	p.submitErr = nil
	assert.ErrorIs(t, tr.Submit(p), pkg.ErrInvalidState)
}

func TestTransfer_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	tr, err := NewBulkTransfer(EndpointDataIn, make([]byte, 16),
		CompletionFunc(func(*Transfer) error { return boom }))
	require.NoError(t, err)
	require.NoError(t, tr.Submit(&mockProvider{}))

	assert.ErrorIs(t, tr.Complete(pkg.TransferStatusSuccess, 0), boom)
	assert.Equal(t, StateFailed, tr.State())
}

func TestTransfer_SubmitResetsPackets(t *testing.T) {
	tr, err := NewIsochronousTransfer(EndpointISOIn, make([]byte, 64), 4, nopHandler())
	require.NoError(t, err)
	p := &mockProvider{}
	require.NoError(t, tr.Submit(p))

	pkts := tr.Packets()
	pkts[1].ActualLength = 16
	pkts[1].Status = pkg.TransferStatusStall
	require.NoError(t, tr.Complete(pkg.TransferStatusSuccess, 16))
	assert.Equal(t, pkg.TransferStatusStall, tr.Outcome().Packets[1].Status)

	require.NoError(t, tr.Submit(p))
	for i, pk := range tr.Packets() {
		assert.Equal(t, 0, pk.ActualLength, "packet %d", i)
		assert.Equal(t, pkg.TransferStatusSuccess, pk.Status, "packet %d", i)
		assert.Equal(t, 16, pk.Length, "packet %d", i)
	}
}

// =============================================================================
// Preset Tests
// =============================================================================

func TestMode(t *testing.T) {
	for _, s := range []string{"iso", "bulk"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}
	_, err := ParseMode("interrupt")
	assert.Error(t, err)

	iso := ModeIsochronous.Preset()
	assert.Equal(t, Preset{Endpoint: 0x86, Packets: 16, Size: 2048}, iso)
	bulk := ModeBulk.Preset()
	assert.Equal(t, Preset{Endpoint: 0x82, Size: 2048}, bulk)
}

func TestPreset_NewTransfer(t *testing.T) {
	tr, err := ModeIsochronous.Preset().NewTransfer(nopHandler())
	require.NoError(t, err)
	assert.Equal(t, hal.TransferIsochronous, tr.Type())
	assert.Len(t, tr.Packets(), ISOPackets)
	assert.Equal(t, BufferSize/ISOPackets, tr.Packets()[0].Length)

	tr, err = ModeBulk.Preset().NewTransfer(nopHandler())
	require.NoError(t, err)
	assert.Equal(t, hal.TransferBulk, tr.Type())
	assert.Equal(t, BufferSize, tr.Length())
}

package snapshot_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villaledger/internal/app/policies"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
	"villaledger/internal/infra/snapshot"
)

const template = `<!doctype html>
<html><body>
<p>Son güncelleme: <span id="last-updated">-</span></p>
<script id="villa-data" type="application/json">{}</script>
<script src="app.js"></script>
</body></html>
`

var istanbul = time.FixedZone("TRT", 3*60*60)

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func booked(t *testing.T) *reservations.Reservation {
	t.Helper()
	in := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	r, err := reservations.New(pricing.DefaultRules(), reservations.SaveParams{
		ID:        1751500000000,
		GuestName: "Ayşe",
		Now:       in,
		Stay: stay.Input{
			Unit:           units.Safira,
			CheckIn:        in,
			CheckOut:       in.AddDate(0, 0, 5),
			CommissionRate: decimal.NewFromInt(10),
			PaidAmount:     decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		},
	})
	require.NoError(t, err)
	return r
}

type recordingMirror struct {
	keys []string
	body string
	err  error
}

func (m *recordingMirror) Upload(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	data, _ := io.ReadAll(reader)
	m.keys = append(m.keys, key)
	m.body = string(data)
	return key, m.err
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "none.html"), istanbul)
	b, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, b.Reservations)
	assert.Empty(t, b.Prices)
	assert.True(t, b.UpdatedAt.IsZero())
}

func TestWriteNeedsTemplate(t *testing.T) {
	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "none.html"), istanbul)
	err := store.Write(context.Background(), policies.Backup{})
	assert.ErrorIs(t, err, snapshot.ErrTemplateNotFound)

	store = snapshot.NewFileStore(writeTemplate(t, "<html></html>"), istanbul)
	err = store.Write(context.Background(), policies.Backup{})
	assert.ErrorIs(t, err, snapshot.ErrDataTagNotFound)
}

func TestWriteThenRead(t *testing.T) {
	path := writeTemplate(t, template)
	mirror := &recordingMirror{}
	store := snapshot.NewFileStore(path, istanbul)
	store.Mirror = mirror
	at := time.Date(2026, 7, 1, 9, 30, 15, 0, time.UTC)

	err := store.Write(context.Background(), policies.Backup{
		Reservations: []*reservations.Reservation{booked(t)},
		Prices:       pricing.DefaultRules(),
		UpdatedAt:    at,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(content)
	assert.Contains(t, page, `<span id="last-updated">01.07.2026 12:30:15</span>`)
	assert.Contains(t, page, `<script src="app.js"></script>`)
	assert.True(t, strings.HasPrefix(page, "<!doctype html>"))
	assert.Equal(t, []string{"snapshots/backup.html"}, mirror.keys)
	assert.Equal(t, page, mirror.body)

	b, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Reservations, 1)
	r := b.Reservations[0]
	assert.Equal(t, reservations.ID(1751500000000), r.ID)
	assert.Equal(t, "Ayşe", r.GuestName)
	assert.True(t, r.Gross.Equal(decimal.NewFromInt(22500)))
	assert.True(t, r.Remaining.Equal(decimal.NewFromInt(15250)))
	assert.Len(t, b.Prices, len(pricing.DefaultRules()))
	assert.True(t, b.UpdatedAt.Equal(at))
}

func TestMirrorFailureDoesNotFailWrite(t *testing.T) {
	store := snapshot.NewFileStore(writeTemplate(t, template), istanbul)
	store.Mirror = &recordingMirror{err: errors.New("bucket gone")}
	assert.NoError(t, store.Write(context.Background(), policies.Backup{}))
}

func TestReadAcceptsLegacyArrayAndBrokenData(t *testing.T) {
	legacy := strings.Replace(template, "{}",
		`[{"id":3,"apart":"Destan","name":"Ali","cin":"2026-06-01","cout":"2026-06-03","price":3000}]`, 1)
	store := snapshot.NewFileStore(writeTemplate(t, legacy), istanbul)
	b, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Reservations, 1)
	assert.Equal(t, units.Destan, b.Reservations[0].Unit)

	prices := strings.Replace(template, "{}", `{"prices":[{"id":1,"apart":"Safira","start":"2026-06-01","end":"2026-06-30","price":3500}]}`, 1)
	store = snapshot.NewFileStore(writeTemplate(t, prices), istanbul)
	b, err = store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, b.Reservations)
	assert.Len(t, b.Prices, 1)

	broken := strings.Replace(template, "{}", `{"reservations": [`, 1)
	store = snapshot.NewFileStore(writeTemplate(t, broken), istanbul)
	b, err = store.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, b.Reservations)
}

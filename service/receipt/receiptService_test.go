package receipt_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rentoken-xyz/rent-sell-nft-marketplace/model"
	"github.com/rentoken-xyz/rent-sell-nft-marketplace/service/receipt"
)

const sender = model.Address("0x2222222222222222222222222222222222222222")

// goodSig is the signature the verifier stub accepts.
const goodSig = "valid"

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{}, nil }

type fakeConn struct{}

func (*fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*fakeConn) Close() error                        { return nil }
func (*fakeConn) Begin() (driver.Tx, error)           { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func init() { sql.Register("fakedb", fakeDriver{}) }

type balancesMem struct{ m map[string]*big.Int }

func bkey(payee, payToken model.Address) string {
	return string(payee.Normalize()) + "/" + string(payToken.Normalize())
}

func (f *balancesMem) bal(payee, payToken model.Address) *big.Int {
	if b, ok := f.m[bkey(payee, payToken)]; ok {
		return new(big.Int).Set(b)
	}
	return big.NewInt(0)
}
func (f *balancesMem) Get(_ context.Context, payee, payToken model.Address) (*big.Int, error) {
	return f.bal(payee, payToken), nil
}
func (f *balancesMem) GetForUpdate(_ context.Context, _ *sql.Tx, payee, payToken model.Address) (*big.Int, error) {
	return f.bal(payee, payToken), nil
}
func (f *balancesMem) Add(_ context.Context, _ *sql.Tx, payee, payToken model.Address, amount *big.Int) error {
	f.m[bkey(payee, payToken)] = new(big.Int).Add(f.bal(payee, payToken), amount)
	return nil
}
func (f *balancesMem) Sub(_ context.Context, _ *sql.Tx, _, _ model.Address, _ *big.Int) error {
	return errors.New("not implemented")
}
func (f *balancesMem) Zero(_ context.Context, _ *sql.Tx, _, _ model.Address) error {
	return errors.New("not implemented")
}
func (f *balancesMem) ListByPayee(_ context.Context, _ model.Address) ([]model.Proceeds, error) {
	return nil, errors.New("not implemented")
}

type eventsMem struct{ evs []*model.Event }

func (f *eventsMem) Insert(_ context.Context, _ *sql.Tx, ev *model.Event) error {
	f.evs = append(f.evs, ev)
	return nil
}
func (f *eventsMem) ListByType(_ context.Context, _ model.EventType, _ int) ([]model.Event, error) {
	return nil, nil
}

// verifierStub accepts goodSig and rejects everything else. The ledger
// methods are never reached by the receipt flow.
type verifierStub struct{}

func (verifierStub) OwnerOf(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (verifierStub) GetApproved(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (verifierStub) IsApprovedForAll(context.Context, model.Address, model.Address, model.Address) (bool, error) {
	return false, errors.New("not implemented")
}
func (verifierStub) TransferFrom(context.Context, model.Address, model.Address, model.Address, string) error {
	return errors.New("not implemented")
}
func (verifierStub) UserOf(context.Context, model.Address, string) (model.Address, error) {
	return "", errors.New("not implemented")
}
func (verifierStub) SetUser(context.Context, model.Address, string, model.Address, int64) error {
	return errors.New("not implemented")
}
func (verifierStub) TransferToken(context.Context, model.Address, model.Address, model.Address, *big.Int) error {
	return errors.New("not implemented")
}
func (verifierStub) SendNative(context.Context, model.Address, *big.Int) error {
	return errors.New("not implemented")
}
func (verifierStub) VerifyCallbackSignature(sigHeader string, _ []byte) error {
	if sigHeader != goodSig {
		return errors.New("bad callback signature")
	}
	return nil
}

func newService(t *testing.T) (receipt.Service, *balancesMem, *eventsMem) {
	t.Helper()
	db, err := sql.Open("fakedb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	balances := &balancesMem{m: map[string]*big.Int{}}
	events := &eventsMem{}
	return receipt.New(db, balances, events, verifierStub{}), balances, events
}

func TestHandleNativeTransfer_CreditsSender(t *testing.T) {
	svc, balances, events := newService(t)
	body := []byte(`{"from":"0x2222222222222222222222222222222222222222","value":"5000","data":""}`)

	err := svc.HandleNativeTransfer(context.Background(), goodSig, body)
	require.NoError(t, err)

	require.Equal(t, int64(5_000), balances.bal(sender, model.ZeroAddress).Int64())
	require.Len(t, events.evs, 1)
	require.Equal(t, model.EventProceedsDeposited, events.evs[0].Type)
}

func TestHandleNativeTransfer_BareDataMarkerIsStillPlain(t *testing.T) {
	svc, balances, _ := newService(t)
	body := []byte(`{"from":"0x2222222222222222222222222222222222222222","value":"7","data":"0x"}`)

	require.NoError(t, svc.HandleNativeTransfer(context.Background(), goodSig, body))
	require.Equal(t, int64(7), balances.bal(sender, model.ZeroAddress).Int64())
}

func TestHandleNativeTransfer_Rejections(t *testing.T) {
	cases := []struct {
		name string
		sig  string
		body string
		want receipt.ErrCode
	}{
		{
			name: "bad signature",
			sig:  "forged",
			body: `{"from":"0x2222222222222222222222222222222222222222","value":"5000","data":""}`,
			want: receipt.ErrInvalidSignature,
		},
		{
			name: "instruction data",
			sig:  goodSig,
			body: `{"from":"0x2222222222222222222222222222222222222222","value":"5000","data":"0xdeadbeef"}`,
			want: receipt.ErrInvalidCall,
		},
		{
			name: "malformed sender",
			sig:  goodSig,
			body: `{"from":"0x123","value":"5000","data":""}`,
			want: receipt.ErrInvalidAddress,
		},
		{
			name: "zero value",
			sig:  goodSig,
			body: `{"from":"0x2222222222222222222222222222222222222222","value":"0","data":""}`,
			want: receipt.ErrInvalidAmount,
		},
		{
			name: "non-numeric value",
			sig:  goodSig,
			body: `{"from":"0x2222222222222222222222222222222222222222","value":"lots","data":""}`,
			want: receipt.ErrInvalidAmount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, balances, events := newService(t)
			err := svc.HandleNativeTransfer(context.Background(), tc.sig, []byte(tc.body))
			require.Equal(t, tc.want, receipt.Code(err))

			// nothing credited on rejection
			require.Empty(t, balances.m)
			require.Empty(t, events.evs)
		})
	}
}

func TestHandleAssetReceipt_AcknowledgesWithSelector(t *testing.T) {
	svc, _, _ := newService(t)
	body := []byte(`{"nft_address":"0x4444444444444444444444444444444444444444","operator":"0x2222222222222222222222222222222222222222","from":"0x1111111111111111111111111111111111111111","token_id":"1","data":""}`)

	selector, err := svc.HandleAssetReceipt(context.Background(), goodSig, body)
	require.NoError(t, err)
	require.Equal(t, "0x150b7a02", selector)
}

func TestHandleAssetReceipt_BadSignature(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.HandleAssetReceipt(context.Background(), "forged", []byte(`{}`))
	require.Equal(t, receipt.ErrInvalidSignature, receipt.Code(err))
}

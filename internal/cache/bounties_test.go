package cache

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/scval"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/pkg/types"
)

const (
	testContractID = "CACDYF3CYMJEJTIVFESQYZTN67GCZR5VACJW22QKHUVQ7DUQNRN7PKKS"
	creatorA       = "GAAAN7PIRZGYAPEC2GHY5FLntM5EEM23BB4FFKPP5EHVQEVXKW654AAA"
	creatorB       = "GBBBN7PIRZGYAPEC2GHY5FLntM5EEM23BB4FFKPP5EHVQEVXKW654BBB"
)

// listClient 返回固定悬赏列表的假链客户端
type listClient struct {
	retval scval.Value
	simErr error
}

func (c *listClient) GetAccount(ctx context.Context, address string) (*transport.AccountState, error) {
	return &transport.AccountState{Address: address}, nil
}

func (c *listClient) SimulateTransaction(ctx context.Context, envelopeXDR string) (*transport.SimulateResult, error) {
	if c.simErr != nil {
		return nil, c.simErr
	}
	return &transport.SimulateResult{Retval: c.retval}, nil
}

func (c *listClient) SendTransaction(ctx context.Context, signedXDR string) (*transport.SendResult, error) {
	return nil, errors.New("not implemented")
}

func (c *listClient) GetTransaction(ctx context.Context, hash string) (*transport.GetTransactionResult, error) {
	return nil, errors.New("not implemented")
}

func (c *listClient) PollUntilTerminal(ctx context.Context, hash string, maxAttempts int, interval time.Duration) (*transport.GetTransactionResult, error) {
	return nil, errors.New("not implemented")
}

func (c *listClient) Ping(ctx context.Context) error { return nil }
func (c *listClient) Close() error                   { return nil }

func record(id uint64, status uint32, creator string) scval.Value {
	return scval.Map(map[string]scval.Value{
		"id":          scval.U64(id),
		"creator":     scval.Address(creator),
		"title":       scval.String("t"),
		"description": scval.String("d"),
		"reward":      scval.I128(big.NewInt(1_000_000)),
		"deadline":    scval.U64(1_900_000_000),
		"status":      scval.U32(status),
	})
}

func newTestCache(t *testing.T, client transport.Client) *BountyCache {
	t.Helper()
	contracts := contract.NewInvocationService(testContractID, "", "passphrase", client)
	c, err := NewBountyCache(contracts, time.Minute)
	if err != nil {
		t.Fatalf("NewBountyCache() error = %v", err)
	}
	return c
}

func TestBountyCache_RefreshAndRead(t *testing.T) {
	client := &listClient{retval: scval.Vec(
		record(1, 0, creatorA),
		record(3, 0, creatorB),
		record(2, 3, creatorA),
	)}
	c := newTestCache(t, client)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	all, err := c.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	// 新创建的在前（ID降序）
	if len(all) != 3 || all[0].ID != 3 || all[1].ID != 2 || all[2].ID != 1 {
		t.Errorf("All() order = %v", ids(all))
	}

	open, err := c.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(open) != 2 || open[0].ID != 3 || open[1].ID != 1 {
		t.Errorf("Open() = %v", ids(open))
	}

	mine, err := c.ByUser(creatorA)
	if err != nil {
		t.Fatalf("ByUser() error = %v", err)
	}
	if len(mine) != 2 || mine[0].ID != 2 || mine[1].ID != 1 {
		t.Errorf("ByUser() = %v", ids(mine))
	}
}

func TestBountyCache_NotWarmedUp(t *testing.T) {
	c := newTestCache(t, &listClient{})
	if _, err := c.All(); !errors.Is(err, ErrNotWarmedUp) {
		t.Errorf("All() error = %v, want ErrNotWarmedUp", err)
	}
}

func TestBountyCache_ServesStaleOnRefreshFailure(t *testing.T) {
	client := &listClient{retval: scval.Vec(record(1, 0, creatorA))}
	c := newTestCache(t, client)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// 后续刷新失败：已有数据继续可读
	client.simErr = transport.ErrNetworkUnreachable
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should fail when the network is down")
	}

	all, err := c.All()
	if err != nil || len(all) != 1 {
		t.Errorf("All() = %v, %v, want stale data to remain readable", ids(all), err)
	}
}

func TestBountyCache_StartStop(t *testing.T) {
	client := &listClient{retval: scval.Vec(record(1, 0, creatorA))}
	c := newTestCache(t, client)

	// 启动后立即装载一次，之后数据可读
	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := c.All(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not complete after Start()")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v, want no-op", err)
	}
}

func TestBountyCache_NotConfigured(t *testing.T) {
	contracts := contract.NewInvocationService("", "", "passphrase", &listClient{})
	c, err := NewBountyCache(contracts, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(context.Background()); !errors.Is(err, contract.ErrContractNotConfigured) {
		t.Errorf("Refresh() error = %v, want ErrContractNotConfigured", err)
	}
}

func ids(bounties []types.Bounty) []uint64 {
	out := make([]uint64, 0, len(bounties))
	for _, b := range bounties {
		out = append(out, b.ID)
	}
	return out
}

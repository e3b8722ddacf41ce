package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/scval"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/pkg/types"
)

const (
	testContractID = "CACDYF3CYMJEJTIVFESQYZTN67GCZR5VACJW22QKHUVQ7DUQNRN7PKKS"
	testCreator    = "GBZXN7PIRZGYAPEC2GHY5FLntM5EEM23BB4FFKPP5EHVQEVXKW654DTR"
	testPassphrase = "Test SDF Network ; September 2015"
)

// fakeClient 记录调用并返回预设模拟结果
type fakeClient struct {
	simResult   *transport.SimulateResult
	simErr      error
	simCalls    int
	sendCalls   int
	lastEnvXDR  string
	lastProbeOK bool
}

func (f *fakeClient) GetAccount(ctx context.Context, address string) (*transport.AccountState, error) {
	return &transport.AccountState{Address: address, Sequence: 0}, nil
}

func (f *fakeClient) SimulateTransaction(ctx context.Context, envelopeXDR string) (*transport.SimulateResult, error) {
	f.simCalls++
	f.lastEnvXDR = envelopeXDR
	if env, err := builder.DecodeEnvelope(envelopeXDR); err == nil {
		f.lastProbeOK = len(env.Source) == 56 && env.Source[0] == 'G'
	}
	if f.simErr != nil {
		return nil, f.simErr
	}
	return f.simResult, nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, signedXDR string) (*transport.SendResult, error) {
	f.sendCalls++
	return nil, errors.New("read-only path must never submit")
}

func (f *fakeClient) GetTransaction(ctx context.Context, hash string) (*transport.GetTransactionResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) PollUntilTerminal(ctx context.Context, hash string, maxAttempts int, interval time.Duration) (*transport.GetTransactionResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }
func (f *fakeClient) Close() error                   { return nil }

func bountyRecord(id uint64, status uint32, creator string) scval.Value {
	return scval.Map(map[string]scval.Value{
		"id":          scval.U64(id),
		"creator":     scval.Address(creator),
		"title":       scval.String("Fix typo"),
		"description": scval.String("Fix a typo in docs"),
		"reward":      scval.I128(big.NewInt(100_000_000)),
		"deadline":    scval.U64(1_900_000_000),
		"status":      scval.U32(status),
		"assignee":    scval.Void(),
		"proof_url":   scval.Void(),
	})
}

func newTestService(client transport.Client) *InvocationService {
	return NewInvocationService(testContractID, "", testPassphrase, client,
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }))
}

func TestEncodeCreateBounty(t *testing.T) {
	svc := newTestService(&fakeClient{})
	reward, _ := builder.NewAmount(10) // 10 XLM

	op, err := svc.EncodeCreateBounty(testCreator, "Fix typo", "Fix a typo in docs", reward, 7)
	if err != nil {
		t.Fatalf("EncodeCreateBounty() error = %v", err)
	}

	if op.Function != "create_bounty" || op.ContractID != testContractID {
		t.Errorf("op = %+v", op)
	}
	if len(op.Args) != 6 {
		t.Fatalf("len(Args) = %v, want 6", len(op.Args))
	}

	// 参数顺序: creator, title, description, reward, deadline, token
	if addr, _ := op.Args[0].AsAddress(); addr != testCreator {
		t.Errorf("arg0 = %v", addr)
	}
	if s, _ := op.Args[1].AsString(); s != "Fix typo" {
		t.Errorf("arg1 = %v", s)
	}
	reward128, err := op.Args[3].AsI128()
	if err != nil || reward128.Int64() != 100_000_000 { // 10 XLM = 10^8 stroops
		t.Errorf("arg3 = %v, %v", reward128, err)
	}
	deadline, _ := op.Args[4].AsU64()
	if deadline != 1_700_000_000+7*86_400 {
		t.Errorf("arg4 = %v, want now + 7 days", deadline)
	}
	if token, _ := op.Args[5].AsAddress(); token != NativeToken {
		t.Errorf("arg5 = %v, want native token", token)
	}
}

func TestEncodeWriteOperations_ArgumentLists(t *testing.T) {
	svc := newTestService(&fakeClient{})

	t.Run("Initialize", func(t *testing.T) {
		op, err := svc.EncodeInitialize()
		if err != nil {
			t.Fatalf("EncodeInitialize() error = %v", err)
		}
		// initialize不接受任何参数
		if op.Function != "initialize" || len(op.Args) != 0 {
			t.Errorf("op = %v with %d args, want initialize with 0 args", op.Function, len(op.Args))
		}
	})

	t.Run("SubmitSolution", func(t *testing.T) {
		op, err := svc.EncodeSubmitSolution(7, testCreator, "https://example.com/pr/1")
		if err != nil {
			t.Fatalf("EncodeSubmitSolution() error = %v", err)
		}
		if op.Function != "submit_solution" || len(op.Args) != 3 {
			t.Fatalf("op = %v with %d args, want submit_solution with 3 args", op.Function, len(op.Args))
		}
		// 参数顺序: bounty_id, solver, proof_url
		if id, _ := op.Args[0].AsU64(); id != 7 {
			t.Errorf("arg0 = %v", id)
		}
		if solver, _ := op.Args[1].AsAddress(); solver != testCreator {
			t.Errorf("arg1 = %v", solver)
		}
		if url, _ := op.Args[2].AsString(); url != "https://example.com/pr/1" {
			t.Errorf("arg2 = %v", url)
		}
	})

	t.Run("ApproveSolution", func(t *testing.T) {
		op, err := svc.EncodeApproveSolution(7)
		if err != nil {
			t.Fatalf("EncodeApproveSolution() error = %v", err)
		}
		if op.Function != "approve_solution" || len(op.Args) != 2 {
			t.Fatalf("op = %v with %d args, want approve_solution with 2 args", op.Function, len(op.Args))
		}
		// 参数顺序: bounty_id, token_address（合约把奖励转给提交者的支付代币）
		if id, _ := op.Args[0].AsU64(); id != 7 {
			t.Errorf("arg0 = %v", id)
		}
		if token, _ := op.Args[1].AsAddress(); token != NativeToken {
			t.Errorf("arg1 = %v, want native token address", token)
		}
	})

	t.Run("RejectSolution", func(t *testing.T) {
		op, err := svc.EncodeRejectSolution(7)
		if err != nil {
			t.Fatalf("EncodeRejectSolution() error = %v", err)
		}
		// reject_solution只接受bounty_id一个参数
		if op.Function != "reject_solution" || len(op.Args) != 1 {
			t.Fatalf("op = %v with %d args, want reject_solution with 1 arg", op.Function, len(op.Args))
		}
		if id, _ := op.Args[0].AsU64(); id != 7 {
			t.Errorf("arg0 = %v", id)
		}
	})

	t.Run("CancelBounty", func(t *testing.T) {
		op, err := svc.EncodeCancelBounty(7)
		if err != nil {
			t.Fatalf("EncodeCancelBounty() error = %v", err)
		}
		if op.Function != "cancel_bounty" || len(op.Args) != 2 {
			t.Fatalf("op = %v with %d args, want cancel_bounty with 2 args", op.Function, len(op.Args))
		}
		// 参数顺序: bounty_id, token_address（合约把奖励退回创建者的支付代币）
		if id, _ := op.Args[0].AsU64(); id != 7 {
			t.Errorf("arg0 = %v", id)
		}
		if token, _ := op.Args[1].AsAddress(); token != NativeToken {
			t.Errorf("arg1 = %v, want native token address", token)
		}
	})
}

func TestEncodeCreateBounty_ZeroDeadline(t *testing.T) {
	svc := newTestService(&fakeClient{})
	reward, _ := builder.NewAmount(1)
	if _, err := svc.EncodeCreateBounty(testCreator, "t", "d", reward, 0); !errors.Is(err, ErrInvalidDeadline) {
		t.Errorf("error = %v, want ErrInvalidDeadline", err)
	}
}

func TestEncode_NotConfigured(t *testing.T) {
	svc := NewInvocationService("", "", testPassphrase, &fakeClient{})
	if _, err := svc.EncodeCancelBounty(1); !errors.Is(err, ErrContractNotConfigured) {
		t.Errorf("error = %v, want ErrContractNotConfigured", err)
	}
	if _, err := svc.GetAllBounties(context.Background()); !errors.Is(err, ErrContractNotConfigured) {
		t.Errorf("error = %v, want ErrContractNotConfigured", err)
	}
}

func TestGetAllBounties(t *testing.T) {
	client := &fakeClient{
		simResult: &transport.SimulateResult{
			Retval: scval.Vec(
				bountyRecord(1, 0, testCreator),
				bountyRecord(2, 2, testCreator),
			),
		},
	}
	svc := newTestService(client)

	bounties, err := svc.GetAllBounties(context.Background())
	if err != nil {
		t.Fatalf("GetAllBounties() error = %v", err)
	}
	if len(bounties) != 2 {
		t.Fatalf("len = %v, want 2", len(bounties))
	}
	if bounties[0].Status != types.BountyStatusOpen || bounties[1].Status != types.BountyStatusCompleted {
		t.Errorf("statuses = %v, %v", bounties[0].Status, bounties[1].Status)
	}

	// 只读查询：模拟一次，永不提交，源账户为随机探针地址
	if client.simCalls != 1 || client.sendCalls != 0 {
		t.Errorf("simCalls = %v, sendCalls = %v", client.simCalls, client.sendCalls)
	}
	if !client.lastProbeOK {
		t.Error("read must use a throwaway G-address probe source")
	}
}

func TestGetAllBounties_DropsMalformedRecords(t *testing.T) {
	client := &fakeClient{
		simResult: &transport.SimulateResult{
			Retval: scval.Vec(
				bountyRecord(1, 0, testCreator),
				scval.String("not a bounty"), // 混入的坏记录
				scval.Map(map[string]scval.Value{"id": scval.U64(3)}), // 缺字段
				bountyRecord(4, 1, testCreator),
			),
		},
	}
	svc := newTestService(client)

	bounties, err := svc.GetAllBounties(context.Background())
	if err != nil {
		t.Fatalf("GetAllBounties() error = %v", err)
	}
	if len(bounties) != 2 {
		t.Fatalf("len = %v, want 2 (malformed records dropped, not fatal)", len(bounties))
	}
	if bounties[0].ID != 1 || bounties[1].ID != 4 {
		t.Errorf("ids = %v, %v", bounties[0].ID, bounties[1].ID)
	}
}

func TestGetBounty_NotFound(t *testing.T) {
	client := &fakeClient{simResult: &transport.SimulateResult{Retval: scval.Void()}}
	svc := newTestService(client)

	bounty, err := svc.GetBounty(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBounty() error = %v", err)
	}
	if bounty != nil {
		t.Errorf("bounty = %+v, want nil", bounty)
	}
}

func TestGetBounty_NotFound_SimulationPanic(t *testing.T) {
	// 合约对不存在的id panic("Bounty not found")，体现为模拟诊断
	client := &fakeClient{simResult: &transport.SimulateResult{
		Error: `HostError: Error(WasmVm, InvalidAction) Event log: "Bounty not found"`,
	}}
	svc := newTestService(client)

	bounty, err := svc.GetBounty(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetBounty() error = %v, want nil (missing id is not a read failure)", err)
	}
	if bounty != nil {
		t.Errorf("bounty = %+v, want nil", bounty)
	}
}

func TestGetBountyCount(t *testing.T) {
	tests := []struct {
		name   string
		retval scval.Value
		want   uint64
	}{
		{"Seven", scval.U32(7), 7},
		{"U64Seven", scval.U64(7), 7},
		{"Zero", scval.U32(0), 0},
		{"Malformed", scval.String("oops"), 0},
		{"Void", scval.Void(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{simResult: &transport.SimulateResult{Retval: tt.retval}}
			svc := newTestService(client)

			count, err := svc.GetBountyCount(context.Background())
			if err != nil {
				t.Fatalf("GetBountyCount() error = %v", err)
			}
			if count != tt.want {
				t.Errorf("count = %v, want %v", count, tt.want)
			}
		})
	}
}

func TestRead_SimulationError(t *testing.T) {
	client := &fakeClient{simResult: &transport.SimulateResult{Error: "contract not found"}}
	svc := newTestService(client)

	if _, err := svc.GetAllBounties(context.Background()); !errors.Is(err, ErrReadFailed) {
		t.Errorf("error = %v, want ErrReadFailed", err)
	}
}

func TestDecodeBounty_OptionalFields(t *testing.T) {
	record := scval.Map(map[string]scval.Value{
		"id":          scval.U64(5),
		"creator":     scval.Address(testCreator),
		"title":       scval.String("t"),
		"description": scval.String("d"),
		"reward":      scval.I128(big.NewInt(1)),
		"deadline":    scval.U64(1),
		"status":      scval.U32(1),
		"assignee":    scval.Address("GWORKER"),
		"proof_url":   scval.String("https://example.com/pr/1"),
		"created_at":  scval.U64(1_650_000_000),
	})

	bounty, err := DecodeBounty(record)
	if err != nil {
		t.Fatalf("DecodeBounty() error = %v", err)
	}
	if bounty.Assignee != "GWORKER" || bounty.ProofURL != "https://example.com/pr/1" {
		t.Errorf("optional fields = %+v", bounty)
	}
	if bounty.Status != types.BountyStatusAssigned {
		t.Errorf("Status = %v, want Assigned", bounty.Status)
	}
}

func TestRandomProbeAddress(t *testing.T) {
	a, b := randomProbeAddress(), randomProbeAddress()
	if len(a) != 56 || a[0] != 'G' {
		t.Errorf("probe address %q malformed", a)
	}
	if a == b {
		t.Error("probe addresses must be random per call")
	}
}

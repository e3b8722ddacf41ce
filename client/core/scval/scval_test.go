package scval

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestValue_Accessors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		got, err := String("hello").AsString()
		if err != nil || got != "hello" {
			t.Errorf("AsString() = %v, %v", got, err)
		}
	})

	t.Run("I128", func(t *testing.T) {
		want := new(big.Int).Lsh(big.NewInt(1), 100) // 超出int64范围
		got, err := I128(want).AsI128()
		if err != nil || got.Cmp(want) != 0 {
			t.Errorf("AsI128() = %v, %v", got, err)
		}
	})

	t.Run("U64", func(t *testing.T) {
		got, err := U64(18_446_744_073_709_551_615).AsU64()
		if err != nil || got != 18_446_744_073_709_551_615 {
			t.Errorf("AsU64() = %v, %v", got, err)
		}
	})

	t.Run("Bool", func(t *testing.T) {
		got, err := Bool(true).AsBool()
		if err != nil || !got {
			t.Errorf("AsBool() = %v, %v", got, err)
		}
	})

	t.Run("Address", func(t *testing.T) {
		got, err := Address("GABC").AsAddress()
		if err != nil || got != "GABC" {
			t.Errorf("AsAddress() = %v, %v", got, err)
		}
	})
}

func TestValue_TypeMismatch(t *testing.T) {
	if _, err := String("x").AsU64(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want ErrTypeMismatch", err)
	}
	if _, err := U64(1).AsAddress(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("error = %v, want ErrTypeMismatch", err)
	}
}

func TestValue_U32U64Widening(t *testing.T) {
	// 合约计数器字段在不同版本间有u32/u64宽度差异
	got, err := U32(7).AsU64()
	if err != nil || got != 7 {
		t.Errorf("AsU64() on u32 = %v, %v", got, err)
	}
	got32, err := U64(7).AsU32()
	if err != nil || got32 != 7 {
		t.Errorf("AsU32() on u64 = %v, %v", got32, err)
	}
}

func TestValue_VecAndMap(t *testing.T) {
	v := Vec(U64(1), U64(2), U64(3))
	entries, err := v.AsVec()
	if err != nil || len(entries) != 3 {
		t.Fatalf("AsVec() = %v, %v", entries, err)
	}

	m := Map(map[string]Value{
		"id":    U64(1),
		"title": String("Fix typo"),
	})
	title, ok := m.Field("title")
	if !ok {
		t.Fatal("Field(title) missing")
	}
	if s, _ := title.AsString(); s != "Fix typo" {
		t.Errorf("title = %v", s)
	}
	if _, ok := m.Field("missing"); ok {
		t.Error("Field(missing) should not exist")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType Type
		wantErr  bool
	}{
		{"String", `{"type":"string","str":"hi"}`, TypeString, false},
		{"Vec", `{"type":"vec","entries":[{"type":"u64","str":"1"}]}`, TypeVec, false},
		{"Null", `null`, TypeVoid, false},
		{"MissingType", `{"str":"hi"}`, "", true},
		{"Garbage", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.wantType {
				t.Errorf("Parse() type = %v, want %v", got.Type, tt.wantType)
			}
		})
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	v := Map(map[string]Value{
		"reward": I128(big.NewInt(125_000_000)),
		"tags":   Vec(String("docs"), String("typo")),
	})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	reward, _ := parsed.Field("reward")
	n, err := reward.AsI128()
	if err != nil || n.Int64() != 125_000_000 {
		t.Errorf("reward = %v, %v", n, err)
	}
}

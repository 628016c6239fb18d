package mining

import "testing"

func TestChainParams(t *testing.T) {
	tests := []struct {
		network string
		name    string
		wantErr bool
	}{
		{"", "mainnet", false},
		{"mainnet", "mainnet", false},
		{"testnet3", "testnet3", false},
		{"regtest", "regtest", false},
		{"dogecoin", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			p, err := ChainParams(tt.network)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Name != tt.name {
				t.Errorf("Name = %q, want %q", p.Name, tt.name)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	mainnet, _ := ChainParams("mainnet")
	testnet, _ := ChainParams("testnet")

	const genesis = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	if err := ValidateAddress(genesis, mainnet); err != nil {
		t.Errorf("mainnet address rejected: %v", err)
	}
	if err := ValidateAddress(genesis, testnet); err == nil {
		t.Error("mainnet address accepted on testnet")
	}
	if err := ValidateAddress("not-an-address", mainnet); err == nil {
		t.Error("garbage accepted")
	}
}

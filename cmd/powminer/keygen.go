package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	chainconfig "github.com/weisyn/powminer/internal/config/chain"
)

// keyPair 新生成的奖励地址与私钥
type keyPair struct {
	Address  string
	WIF      string
	PubKey   string
	Mnemonic string // 仅 --mnemonic 时填写
	Path     string
}

func newKeygenCmd() *cobra.Command {
	var (
		network    string
		mnemonic   bool
		passphrase string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "生成出块奖励地址",
		Long: `生成 secp256k1 私钥及对应的 P2PKH 地址，可直接用于 miner.address。

--mnemonic 时先生成 BIP39 助记词，再按 BIP44 路径 m/44'/<coin>'/0'/0/0 派生。
私钥以 WIF 格式输出，仅用于开发链，请勿在主网使用。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureOutput()

			params, err := chainconfig.NetParams(network)
			if err != nil {
				return err
			}

			var kp *keyPair
			if mnemonic {
				kp, err = generateMnemonicKeyPair(params, passphrase)
			} else {
				kp, err = generateKeyPair(params)
			}
			if err != nil {
				return err
			}

			rows := [][]string{
				{"地址", kp.Address},
				{"公钥", kp.PubKey},
				{"私钥 (WIF)", kp.WIF},
			}
			if kp.Mnemonic != "" {
				rows = append(rows, []string{"助记词", kp.Mnemonic}, []string{"派生路径", kp.Path})
			}
			pterm.DefaultSection.Printf("新地址 (%s)\n", params.Name)
			return pterm.DefaultTable.WithHasHeader(false).WithBoxed(true).WithData(rows).Render()
		},
	}

	f := cmd.Flags()
	f.StringVar(&network, "network", "regtest", "网络：mainnet/testnet3/regtest/simnet")
	f.BoolVar(&mnemonic, "mnemonic", false, "通过 BIP39 助记词派生")
	f.StringVar(&passphrase, "passphrase", "", "BIP39 口令（可选）")
	return cmd
}

func generateKeyPair(params *chaincfg.Params) (*keyPair, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("生成私钥失败: %w", err)
	}
	return encodeKeyPair(privKey, params)
}

func generateMnemonicKeyPair(params *chaincfg.Params, passphrase string) (*keyPair, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, fmt.Errorf("生成熵失败: %w", err)
	}
	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("生成助记词失败: %w", err)
	}
	return deriveFromMnemonic(params, words, passphrase)
}

// deriveFromMnemonic 按 m/44'/coin'/0'/0/0 派生第一个外部地址
func deriveFromMnemonic(params *chaincfg.Params, words, passphrase string) (*keyPair, error) {
	if !bip39.IsMnemonicValid(words) {
		return nil, fmt.Errorf("助记词无效")
	}
	master, err := hdkeychain.NewMaster(bip39.NewSeed(words, passphrase), params)
	if err != nil {
		return nil, fmt.Errorf("创建主密钥失败: %w", err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + params.HDCoinType,
		hdkeychain.HardenedKeyStart,
		0,
		0,
	}
	key := master
	for _, idx := range path {
		if key, err = key.Derive(idx); err != nil {
			return nil, fmt.Errorf("派生密钥失败: %w", err)
		}
	}
	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}

	kp, err := encodeKeyPair(privKey, params)
	if err != nil {
		return nil, err
	}
	kp.Mnemonic = words
	kp.Path = fmt.Sprintf("m/44'/%d'/0'/0/0", params.HDCoinType)
	return kp, nil
}

func encodeKeyPair(privKey *btcec.PrivateKey, params *chaincfg.Params) (*keyPair, error) {
	wif, err := btcutil.NewWIF(privKey, params, true)
	if err != nil {
		return nil, fmt.Errorf("编码WIF失败: %w", err)
	}
	pubKey := privKey.PubKey().SerializeCompressed()
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey), params)
	if err != nil {
		return nil, fmt.Errorf("生成地址失败: %w", err)
	}
	return &keyPair{
		Address: addr.EncodeAddress(),
		WIF:     wif.String(),
		PubKey:  fmt.Sprintf("%x", pubKey),
	}, nil
}

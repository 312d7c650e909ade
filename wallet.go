package triviad

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"pkt.systems/pslog"
)

// ErrUnauthorized is returned when an admin-only operation is attempted
// with the wrong password.
var ErrUnauthorized = errors.New("invalid admin password")

// TokenBalance aggregates the wallet's holdings of one coin.
type TokenBalance struct {
	CoinID     string
	Amount     *big.Int
	TokenCount int
}

// WalletSummary is a read-only view of the externally persisted token files.
type WalletSummary struct {
	Balances    []TokenBalance
	TotalTokens int
}

// WalletInspector summarizes externally persisted token balances. The wallet
// subsystem owns the files; this server only reads them.
type WalletInspector interface {
	WalletSummary(ctx context.Context) (WalletSummary, error)
}

// FileWallet reads token files written by the wallet subsystem under
// <dataDir>/tokens/*.json. Unreadable or malformed files are skipped with a
// warning so one bad token cannot hide the rest of the balance.
type FileWallet struct {
	dir    string
	logger pslog.Logger
}

// NewFileWallet constructs a wallet inspector rooted at dataDir.
func NewFileWallet(dataDir string, logger pslog.Logger) *FileWallet {
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &FileWallet{dir: filepath.Join(dataDir, "tokens"), logger: logger}
}

// WalletSummary aggregates per-coin amounts across all token files. A
// missing tokens directory is an empty wallet, not an error.
func (w *FileWallet) WalletSummary(_ context.Context) (WalletSummary, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return WalletSummary{}, nil
		}
		return WalletSummary{}, fmt.Errorf("read tokens dir: %w", err)
	}

	type bucket struct {
		amount *big.Int
		count  int
	}
	buckets := make(map[string]*bucket)
	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		total++
		path := filepath.Join(w.dir, entry.Name())
		coinID, amount, err := readTokenCoin(path)
		if err != nil {
			w.logger.Warn("skipping unreadable token file", "file", entry.Name(), "error", err)
			continue
		}
		if coinID == "" {
			continue
		}
		b, ok := buckets[coinID]
		if !ok {
			b = &bucket{amount: new(big.Int)}
			buckets[coinID] = b
		}
		b.amount.Add(b.amount, amount)
		b.count++
	}

	balances := make([]TokenBalance, 0, len(buckets))
	for coinID, b := range buckets {
		balances = append(balances, TokenBalance{CoinID: coinID, Amount: b.amount, TokenCount: b.count})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].CoinID < balances[j].CoinID })

	for _, b := range balances {
		w.logger.Debug("wallet balance",
			"coin_id", b.CoinID,
			"amount", humanize.BigComma(new(big.Int).Set(b.Amount)),
			"tokens", b.TokenCount,
		)
	}
	return WalletSummary{Balances: balances, TotalTokens: total}, nil
}

// readTokenCoin extracts the first coin entry from a token file. The wallet
// SDK has serialized the coin table both as a map and as a list of
// [key, value] pairs, so both shapes are accepted.
func readTokenCoin(path string) (coinID string, amount *big.Int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var file struct {
		Token struct {
			Coins json.RawMessage `json:"coins"`
		} `json:"token"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return "", nil, err
	}
	raw := file.Token.Coins
	if len(raw) == 0 {
		return "", nil, nil
	}
	// Unwrap the nested coin table: {"coins": ...} inside the coins object.
	var table struct {
		Coins json.RawMessage `json:"coins"`
	}
	if err := json.Unmarshal(raw, &table); err == nil && len(table.Coins) > 0 {
		raw = table.Coins
	}

	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err == nil {
		if len(pairs) == 0 {
			return "", nil, nil
		}
		id, err := decodeCoinID(pairs[0][0])
		if err != nil {
			return "", nil, err
		}
		amt, err := decodeAmount(pairs[0][1])
		if err != nil {
			return "", nil, err
		}
		return id, amt, nil
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byID); err != nil {
		return "", nil, fmt.Errorf("unsupported coin table shape: %w", err)
	}
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "", nil, nil
	}
	sort.Strings(keys)
	amt, err := decodeAmount(byID[keys[0]])
	if err != nil {
		return "", nil, err
	}
	return keys[0], amt, nil
}

func decodeCoinID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var withData struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &withData); err == nil && len(withData.Data) > 0 {
		return decodeCoinID(withData.Data)
	}
	// Byte arrays arrive as JSON number arrays, not base64 strings.
	var ints []int
	if err := json.Unmarshal(raw, &ints); err == nil && len(ints) > 0 {
		buf := make([]byte, len(ints))
		for i, v := range ints {
			buf[i] = byte(v)
		}
		return hex.EncodeToString(buf), nil
	}
	return "", fmt.Errorf("unsupported coin id encoding: %s", string(raw))
}

func decodeAmount(raw json.RawMessage) (*big.Int, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	amount, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("unsupported coin amount encoding: %s", string(raw))
	}
	return amount, nil
}

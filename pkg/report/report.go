// Package report writes the benchmark driver's run summary as JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"
)

type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   Duration      `json:"elapsed"`
	Lookup    []LayoutStats `json:"lookup,omitempty"`
	Book      *BookStats    `json:"book,omitempty"`
}

type LayoutStats struct {
	Layout    string   `json:"layout"`
	Entries   int      `json:"entries"`
	Build     Duration `json:"build"`
	Queries   int      `json:"queries"`
	Hits      int      `json:"hits"`
	NsPerOp   float64  `json:"ns_per_op"`
	Checksum  int64    `json:"checksum"`
	Readers   int      `json:"readers"`
	Agreement bool     `json:"agreement"`
}

type BookStats struct {
	MinTick     int64    `json:"min_tick"`
	MaxTick     int64    `json:"max_tick"`
	Ops         int      `json:"ops"`
	Adds        int      `json:"adds"`
	Cancels     int      `json:"cancels"`
	Modifies    int      `json:"modifies"`
	LiveOrders  int      `json:"live_orders"`
	PriceLevels int      `json:"price_levels"`
	NsPerOp     float64  `json:"ns_per_op"`
	Elapsed     Duration `json:"elapsed"`
	Verified    bool     `json:"verified"`

	// PeakPrice 累计量最大的价位（十进制价格）
	PeakPrice  string `json:"peak_price,omitempty"`
	PeakVolume int32  `json:"peak_volume,omitempty"`
}

// Duration 输出成 "1.5ms" 这种字符串，读回来也能解析
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Encode 缩进两格的 JSON，末尾带换行
func Encode(w io.Writer, r *Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Write 写到 path；path 为空或 "-" 时写 stdout
func Write(path string, r *Report) error {
	if path == "" || path == "-" {
		return Encode(os.Stdout, r)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := Encode(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read 读回一份报告，便于对比两次运行
func Read(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", path, err)
	}
	return &r, nil
}

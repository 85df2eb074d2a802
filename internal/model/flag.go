package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Flag identifies one of the service capabilities a branch can advertise.
type Flag int

// Flags in display order. The order is also the column order of the record
// set and the bluehands table.
const (
	FlagEV Flag = iota
	FlagEVTech
	FlagHydrogen
	FlagFrame
	FlagAlFrame
	FlagNLine
	FlagCommercialMid
	FlagCommercialBig
	FlagCommercialEV
	FlagCSExcellent

	numFlags
)

type flagInfo struct {
	column    string
	sourceKey string
	label     string
}

var flagTable = [numFlags]flagInfo{
	FlagEV:            {"is_ev", "spcialSrvH003", "전기차 수리"},
	FlagEVTech:        {"is_ev_tech", "spcialSrvC002", "전동차 기술력 우수"},
	FlagHydrogen:      {"is_hydrogen", "spcialSrvH001", "수소전기차 수리"},
	FlagFrame:         {"is_frame", "spcialSrvC001", "차체/도장 수리 인증"},
	FlagAlFrame:       {"is_al_frame", "spcialSrvC006", "알루미늄 프레임 수리"},
	FlagNLine:         {"is_n_line", "spcialSrvC009", "고성능 N 모델 수리"},
	FlagCommercialMid: {"is_commercial_mid", "spcialSrvC010", "중형 상용 수리"},
	FlagCommercialBig: {"is_commercial_big", "spcialSrvC011", "대형 상용 수리"},
	FlagCommercialEV:  {"is_commercial_ev", "spcialSrvC012", "상용 전동차 수리"},
	FlagCSExcellent:   {"is_cs_excellent", "spcialSrvC003", "CS 우수"},
}

var flagByColumn = func() map[string]Flag {
	m := make(map[string]Flag, numFlags)
	for f := range numFlags {
		m[flagTable[f].column] = f
	}
	return m
}()

// AllFlags returns every flag in display order.
func AllFlags() []Flag {
	out := make([]Flag, numFlags)
	for i := range out {
		out[i] = Flag(i)
	}
	return out
}

// Column returns the record set / database column name (e.g. "is_ev").
func (f Flag) Column() string {
	if !f.valid() {
		return ""
	}
	return flagTable[f].column
}

// SourceKey returns the key the listing endpoint uses for this flag.
func (f Flag) SourceKey() string {
	if !f.valid() {
		return ""
	}
	return flagTable[f].sourceKey
}

// Label returns the Korean display label.
func (f Flag) Label() string {
	if !f.valid() {
		return ""
	}
	return flagTable[f].label
}

// String implements fmt.Stringer.
func (f Flag) String() string {
	if !f.valid() {
		return "unknown"
	}
	return flagTable[f].column
}

func (f Flag) valid() bool {
	return f >= 0 && f < numFlags
}

// FlagColumns returns all flag column names in display order.
func FlagColumns() []string {
	out := make([]string, numFlags)
	for i := range out {
		out[i] = flagTable[i].column
	}
	return out
}

// ParseFlag resolves a column name, with or without the "is_" prefix.
func ParseFlag(s string) (Flag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if f, ok := flagByColumn[s]; ok {
		return f, nil
	}
	if f, ok := flagByColumn["is_"+s]; ok {
		return f, nil
	}
	return 0, eris.Errorf("model: unknown service flag %q", s)
}

// Flags is the set of service capabilities of one branch.
type Flags [numFlags]bool

// Has reports whether f is set.
func (fs Flags) Has(f Flag) bool {
	if !f.valid() {
		return false
	}
	return fs[f]
}

// Set returns a copy of fs with f set to v.
func (fs Flags) Set(f Flag, v bool) Flags {
	if f.valid() {
		fs[f] = v
	}
	return fs
}

// Labels returns the labels of the set flags in display order.
func (fs Flags) Labels() []string {
	var out []string
	for f := range numFlags {
		if fs[f] {
			out = append(out, flagTable[f].label)
		}
	}
	return out
}

// Ints returns the flags as 0/1 values in display order.
func (fs Flags) Ints() []int {
	out := make([]int, numFlags)
	for i, v := range fs {
		if v {
			out[i] = 1
		}
	}
	return out
}

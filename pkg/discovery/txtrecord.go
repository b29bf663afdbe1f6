package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBoardTXT creates the TXT records of a register server.
func EncodeBoardTXT(info *BoardInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyBoard:   info.Board,
		TXTKeyType:    info.TopType,
		TXTKeyVersion: ProtocolVersion,
	}
	if info.Hash != "" {
		txt[TXTKeyHash] = info.Hash
	}
	return txt
}

// DecodeBoardTXT parses the TXT records of a register server.
func DecodeBoardTXT(txt TXTRecordMap) (*BoardInfo, error) {
	info := &BoardInfo{}

	var ok bool
	if info.Board, ok = txt[TXTKeyBoard]; !ok || info.Board == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyBoard)
	}
	if info.TopType, ok = txt[TXTKeyType]; !ok || info.TopType == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyType)
	}

	ver, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	if ver != ProtocolVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidTXTRecord, ver)
	}

	info.Hash = txt[TXTKeyHash]
	if info.Hash != "" && !isHexString(info.Hash) {
		return nil, fmt.Errorf("%w: invalid hash %q", ErrInvalidTXTRecord, info.Hash)
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, found := strings.Cut(s, "=")
		if found {
			txt[k] = v
		} else if k != "" {
			// Key without value (boolean flag)
			txt[k] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

func isHexString(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

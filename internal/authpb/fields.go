package authpb

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// String returns the string value stored under key, or "" when the key is
// missing or holds another kind.
func String(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// Int returns the numeric value stored under key truncated to int64.
func Int(s *structpb.Struct, key string) int64 {
	if s == nil {
		return 0
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return 0
	}
	return int64(v.GetNumberValue())
}

// Sub returns the nested struct stored under key, or nil.
func Sub(s *structpb.Struct, key string) *structpb.Struct {
	if s == nil {
		return nil
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	return v.GetStructValue()
}

package types

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Sample is one observation of a guild's population, taken by the
// collector and written out by the flusher. Immutable once created.
type Sample struct {
	GuildID     string
	MemberCount int64
	ActiveCount int64
	ObservedAt  time.Time
}

func Marshal(val *Sample) ([]byte, error) {
	if val == nil {
		return nil, fmt.Errorf("marshal, val is nil")
	}
	st, err := structpb.NewStruct(map[string]any{
		"guild_id":     val.GuildID,
		"member_count": val.MemberCount,
		"active_count": val.ActiveCount,
		"observed_at":  val.ObservedAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("structpb.NewStruct: %w", err)
	}
	return proto.Marshal(st)
}

func Unmarshal(data []byte) (*Sample, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("received an empty data on unmarshal")
	}
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("proto.Unmarshal: %w", err)
	}
	fields := st.GetFields()
	return &Sample{
		GuildID:     fields["guild_id"].GetStringValue(),
		MemberCount: int64(fields["member_count"].GetNumberValue()),
		ActiveCount: int64(fields["active_count"].GetNumberValue()),
		ObservedAt:  time.Unix(int64(fields["observed_at"].GetNumberValue()), 0),
	}, nil
}

package events

// StampAll assigns the given sequence number and timestamp to every event in
// evts. The matching engine builds events as it walks a submission, then
// calls this exactly once per Submit/Cancel/ExpireTick invocation — after
// every event for that mutation exists — so they all carry the single book
// sequence the mutation advanced to (§4.B.6).
func StampAll(evts []Event, seq uint64, ts int64) {
	for _, e := range evts {
		stamp(e, seq, ts)
	}
}

func stamp(e Event, seq uint64, ts int64) {
	switch v := e.(type) {
	case *OrderAccepted:
		v.SequenceNum, v.Timestamp = seq, ts
	case *OrderRejected:
		v.SequenceNum, v.Timestamp = seq, ts
	case *OrderPartiallyFilled:
		v.SequenceNum, v.Timestamp = seq, ts
	case *OrderFilled:
		v.SequenceNum, v.Timestamp = seq, ts
	case *OrderCanceled:
		v.SequenceNum, v.Timestamp = seq, ts
	case *OrderExpired:
		v.SequenceNum, v.Timestamp = seq, ts
	case *TradeExecuted:
		v.SequenceNum, v.Timestamp = seq, ts
	case *DepthUpdate:
		v.SequenceNum, v.Timestamp = seq, ts
	case *DepthSnapshot:
		v.SequenceNum, v.Timestamp = seq, ts
	}
}

package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/matchbook/internal/domain"
)

// ErrMalformedLine is returned for a ledger line that cannot be decoded.
var ErrMalformedLine = errors.New("malformed_ledger_line")

// execMarker is the literal second field of every execution line.
const execMarker = "exec"

const (
	orderFields     = 7
	executionFields = 10
)

// FormatTimestamp renders t as unix seconds with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return decimal.New(t.UnixMicro(), -6).StringFixed(6)
}

// ParseTimestamp is the inverse of FormatTimestamp. Any number of
// fractional digits is accepted.
func ParseTimestamp(s string) (time.Time, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return time.Time{}, err
	}
	sec := d.IntPart()
	nanos := d.Sub(decimal.NewFromInt(sec)).Shift(9).IntPart()
	return time.Unix(sec, nanos), nil
}

// FormatOrder encodes an order-stream line:
// seq, side, participant, order id, timestamp, price, qty.
func FormatOrder(rec domain.OrderRecord) string {
	return strings.Join([]string{
		strconv.FormatUint(rec.Seq, 10),
		rec.Side.Token(),
		rec.Participant,
		rec.OrderID,
		FormatTimestamp(rec.Timestamp),
		rec.Price.String(),
		strconv.FormatInt(rec.Quantity, 10),
	}, "\t") + "\n"
}

// FormatExecution encodes an execution-stream line:
// seq, "exec", exec id, buyer, bid id, seller, offer id, timestamp, price, qty.
func FormatExecution(ex domain.Execution) string {
	return strings.Join([]string{
		strconv.FormatUint(ex.Seq, 10),
		execMarker,
		ex.ExecID,
		ex.BuyerCode,
		ex.BidOrderID,
		ex.SellerCode,
		ex.OfferOrderID,
		FormatTimestamp(ex.Timestamp),
		ex.Price.String(),
		strconv.FormatInt(ex.Quantity, 10),
	}, "\t") + "\n"
}

// ParseOrder decodes an order-stream line. Fields may be separated by
// any run of whitespace.
func ParseOrder(line string) (domain.OrderRecord, error) {
	f := strings.Fields(line)
	if len(f) != orderFields {
		return domain.OrderRecord{}, malformed(line, "want %d fields, got %d", orderFields, len(f))
	}

	var (
		rec domain.OrderRecord
		err error
	)
	if rec.Seq, err = strconv.ParseUint(f[0], 10, 64); err != nil {
		return rec, malformed(line, "seq: %v", err)
	}
	if rec.Side, err = domain.ParseSide(f[1]); err != nil {
		return rec, malformed(line, "side: %v", err)
	}
	rec.Participant = f[2]
	rec.OrderID = f[3]
	if rec.Timestamp, err = ParseTimestamp(f[4]); err != nil {
		return rec, malformed(line, "timestamp: %v", err)
	}
	if rec.Price, err = domain.ParsePrice(f[5]); err != nil {
		return rec, malformed(line, "price: %v", err)
	}
	if rec.Quantity, err = strconv.ParseInt(f[6], 10, 64); err != nil {
		return rec, malformed(line, "qty: %v", err)
	}
	return rec, nil
}

// ParseExecution decodes an execution-stream line.
func ParseExecution(line string) (domain.Execution, error) {
	f := strings.Fields(line)
	if len(f) != executionFields {
		return domain.Execution{}, malformed(line, "want %d fields, got %d", executionFields, len(f))
	}
	if f[1] != execMarker {
		return domain.Execution{}, malformed(line, "missing %q marker", execMarker)
	}

	var (
		ex  domain.Execution
		err error
	)
	if ex.Seq, err = strconv.ParseUint(f[0], 10, 64); err != nil {
		return ex, malformed(line, "seq: %v", err)
	}
	ex.ExecID = f[2]
	ex.BuyerCode = f[3]
	ex.BidOrderID = f[4]
	ex.SellerCode = f[5]
	ex.OfferOrderID = f[6]
	if ex.Timestamp, err = ParseTimestamp(f[7]); err != nil {
		return ex, malformed(line, "timestamp: %v", err)
	}
	if ex.Price, err = domain.ParsePrice(f[8]); err != nil {
		return ex, malformed(line, "price: %v", err)
	}
	if ex.Quantity, err = strconv.ParseInt(f[9], 10, 64); err != nil {
		return ex, malformed(line, "qty: %v", err)
	}
	return ex, nil
}

// Entry is one line of the merged stream: exactly one of Order and
// Execution is set.
type Entry struct {
	Order     *domain.OrderRecord
	Execution *domain.Execution
}

// Seq returns the sequence number of whichever record the entry holds.
func (e Entry) Seq() uint64 {
	if e.Order != nil {
		return e.Order.Seq
	}
	return e.Execution.Seq
}

// ParseEntry decodes a merged-stream line.
func ParseEntry(line string) (Entry, error) {
	f := strings.Fields(line)
	if len(f) > 1 && f[1] == execMarker {
		ex, err := ParseExecution(line)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Execution: &ex}, nil
	}
	rec, err := ParseOrder(line)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Order: &rec}, nil
}

func malformed(line, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %q", ErrMalformedLine, fmt.Sprintf(format, args...), strings.TrimRight(line, "\n"))
}

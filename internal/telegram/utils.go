package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"print-roll-console/internal/board"
	"print-roll-console/internal/pkg/model"

	"github.com/shopspring/decimal"
)

const pendingPageSize = 10

var (
	ErrMissingArgs = errors.New("missing arguments")
	ErrBadFilter   = errors.New("unknown filter")
)

// commandArgs drops the command itself and splits the rest on whitespace.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := parseID(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrMissingArgs
	}
	return ids, nil
}

// parseMoveArgs reads "<orderID> <rollID|pending> [position]". Positions are
// 1-based for operators; the returned index is 0-based. Without a position
// the order goes to the end.
func parseMoveArgs(args []string, state board.BoardState) (board.MoveCommand, error) {
	if len(args) < 2 {
		return board.MoveCommand{}, ErrMissingArgs
	}
	orderID, err := parseID(args[0])
	if err != nil {
		return board.MoveCommand{}, err
	}
	source, ok := state.Locate(orderID)
	if !ok {
		return board.MoveCommand{}, fmt.Errorf("%w: %d", board.ErrOrderNotFound, orderID)
	}

	dest := board.PendingPool()
	destLen := len(state.Pending)
	if !strings.EqualFold(args[1], "pending") {
		rollID, err := parseID(args[1])
		if err != nil {
			return board.MoveCommand{}, err
		}
		dest = board.RollContainer(rollID)
		roll, _ := state.Roll(rollID)
		destLen = len(roll.Orders)
	}

	index := destLen
	if len(args) > 2 {
		pos, err := strconv.Atoi(args[2])
		if err != nil {
			return board.MoveCommand{}, fmt.Errorf("invalid position %q", args[2])
		}
		index = pos - 1
	}

	return board.MoveCommand{Source: source, Dest: dest, OrderID: orderID, DestIndex: index}, nil
}

// parseFilter reads key=value pairs. Values may be comma separated.
func parseFilter(args []string) (board.PendingFilter, error) {
	var f board.PendingFilter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || value == "" {
			return f, fmt.Errorf("%w: %s", ErrBadFilter, arg)
		}
		values := strings.Split(value, ",")
		switch strings.ToLower(key) {
		case "priority":
			for _, v := range values {
				f.Priorities = append(f.Priorities, model.OrderPriority(titleCase(v)))
			}
		case "material":
			f.Materials = append(f.Materials, values...)
		case "variant":
			f.Variants = append(f.Variants, values...)
		case "type":
			for _, v := range values {
				f.Types = append(f.Types, model.OrderType(titleCase(v)))
			}
		default:
			return f, fmt.Errorf("%w: %s", ErrBadFilter, key)
		}
	}
	return f, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func parseCapacity(text string) (decimal.Decimal, error) {
	capacity, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if err != nil || !capacity.IsPositive() {
		return decimal.Zero, board.ErrInvalidCapacity
	}
	return capacity, nil
}

type uploadCaption struct {
	DBID string
	Type string
	Area string
}

// parseUploadCaption recognizes "upload <dbId> <type> <area>" captions.
func parseUploadCaption(caption string) (uploadCaption, bool) {
	fields := strings.Fields(caption)
	if len(fields) != 4 || !strings.EqualFold(fields[0], "upload") {
		return uploadCaption{}, false
	}
	return uploadCaption{DBID: fields[1], Type: fields[2], Area: fields[3]}, true
}

// page returns the slice of orders shown on page p and the page count.
func page(orders []model.PendingOrder, p int) ([]model.PendingOrder, int) {
	pages := (len(orders) + pendingPageSize - 1) / pendingPageSize
	if p < 0 || p >= pages {
		return nil, pages
	}
	end := min((p+1)*pendingPageSize, len(orders))
	return orders[p*pendingPageSize : end], pages
}

func stagingFolder(userID int64) string {
	return fmt.Sprintf("%d-%d", userID, time.Now().UnixNano())
}

// Command booking-client is an interactive client for the
// facility-booking UDP service.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	booking "github.com/arjunpatel/facilitybook"
	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/logging"
)

func main() {
	semanticStr := flag.String("semantic", "AT_MOST_ONCE", "invocation semantic the server is configured with: AT_MOST_ONCE or AT_LEAST_ONCE")
	flag.Parse()
	args := flag.Args()

	wireSemantic, atLeastOnce, err := parseSemantic(*semanticStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --semantic: %v\n", err)
		os.Exit(1)
	}

	host := "127.0.0.1"
	port := constants.DefaultPort
	bindPort := constants.DefaultBindPort

	switch len(args) {
	case 0:
	case 1:
		host = args[0]
	case 2:
		host = args[0]
		p, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", args[1], err)
			os.Exit(1)
		}
		port = p
	default:
		host = args[0]
		p, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", args[1], err)
			os.Exit(1)
		}
		port = p
		bp, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid bindPort %q: %v\n", args[2], err)
			os.Exit(1)
		}
		bindPort = bp
	}

	logger := logging.NewLogger(nil)
	client, err := booking.Dial(booking.ClientOptions{
		ServerAddr: net.JoinHostPort(host, strconv.Itoa(port)),
		BindAddr:   net.JoinHostPort("", strconv.Itoa(bindPort)),
		Timeout:    constants.DefaultTimeout,
		MaxRetries: constants.DefaultMaxRetries,
		Semantic:   wireSemantic,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to dial %s:%d: %v\n", host, port, err)
		os.Exit(1)
	}
	defer client.Close()

	go printMonitorUpdates(client)

	fmt.Printf("connected to %s:%d (bound locally on port %d)\n", host, port, bindPort)
	fmt.Println(`type "help" for the command list`)

	repl(client, atLeastOnce)
}

func printMonitorUpdates(client *booking.Client) {
	for update := range client.Monitors() {
		fmt.Printf("\n[monitor] %s now has %d booking(s):\n", update.FacilityName, len(update.Bookings))
		for _, b := range update.Bookings {
			fmt.Printf("  %s\n", formatWeekInterval(b))
		}
	}
}

func repl(client *booking.Client, atLeastOnce bool) {
	scanner := bufio.NewScanner(os.Stdin)
	timeout := constants.DefaultTimeout
	retries := constants.DefaultMaxRetries

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		rest := fields[1:]

		switch cmd {
		case "exit", "quit":
			return
		case "help":
			printHelp()
		case "status":
			fmt.Printf("timeout=%s retries=%d semantic=%s\n", timeout, retries, semanticLabel(atLeastOnce))
		case "query":
			handleQuery(client, rest, atLeastOnce)
		case "book":
			handleBook(client, rest, atLeastOnce)
		case "change":
			handleChange(client, rest, atLeastOnce)
		case "monitor":
			handleMonitor(client, rest, atLeastOnce)
		case "op_a":
			handleOpA(client, rest, atLeastOnce)
		case "op_b":
			handleOpB(client, rest, atLeastOnce)
		case "set":
			timeout, retries = handleSet(client, rest, timeout, retries)
		default:
			fmt.Printf("unrecognized command %q, type \"help\" for the list\n", cmd)
		}
	}
}

func semanticLabel(atLeastOnce bool) string {
	if atLeastOnce {
		return "AT_LEAST_ONCE"
	}
	return "AT_MOST_ONCE"
}

func printHelp() {
	fmt.Println(`commands:
  query <name> [day...]         list booked intervals (days 0-6, Monday=0)
  book <name> sD sH sM eD eH eM reserve an interval
  change <id> <offsetMinutes>   shift a booking's endpoints
  monitor <name> <seconds>      subscribe to booking-change callbacks
  op_a [name]                   idempotent no-op
  op_b [name]                   allocate earliest free 1-minute slot
  set timeout <ms>              change the per-attempt reply timeout
  set retries <n>                change the retransmission budget
  status                        show current timeout/retries
  exit                          close the connection and quit`)
}

func handleQuery(client *booking.Client, args []string, atLeastOnce bool) {
	if len(args) < 1 {
		fmt.Println("usage: query <name> [day...]")
		return
	}
	days, err := parseUint8s(args[1:])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	result, err := client.Query(args[0], days)
	if err != nil {
		printErr("QUERY", err, atLeastOnce)
		return
	}
	for _, d := range result {
		fmt.Printf("day %d:\n", d.Day)
		for _, iv := range d.Intervals {
			fmt.Printf("  %02d:%02d - %02d:%02d\n", iv.StartOfDayMin/60, iv.StartOfDayMin%60, iv.EndOfDayMin/60, iv.EndOfDayMin%60)
		}
	}
}

func handleBook(client *booking.Client, args []string, atLeastOnce bool) {
	if len(args) != 7 {
		fmt.Println("usage: book <name> sD sH sM eD eH eM")
		return
	}
	nums, err := parseUint8s(args[1:])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	id, err := client.Book(args[0], nums[0], nums[1], nums[2], nums[3], nums[4], nums[5])
	if err != nil {
		printErr("BOOK", err, atLeastOnce)
		return
	}
	fmt.Printf("confirmation id: %d\n", id)
}

func handleChange(client *booking.Client, args []string, atLeastOnce bool) {
	if len(args) != 2 {
		fmt.Println("usage: change <id> <offsetMinutes>")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Printf("invalid id: %v\n", err)
		return
	}
	offset, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		fmt.Printf("invalid offset: %v\n", err)
		return
	}
	if err := client.Change(uint32(id), int32(offset)); err != nil {
		printErr("CHANGE", err, atLeastOnce)
		return
	}
	fmt.Println("ok")
}

func handleMonitor(client *booking.Client, args []string, atLeastOnce bool) {
	if len(args) != 2 {
		fmt.Println("usage: monitor <name> <seconds>")
		return
	}
	seconds, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Printf("invalid seconds: %v\n", err)
		return
	}
	if err := client.RegisterMonitor(args[0], time.Duration(seconds)*time.Second); err != nil {
		printErr("REGISTER_MONITOR", err, atLeastOnce)
		return
	}
	fmt.Println("ok")
}

func handleOpA(client *booking.Client, args []string, atLeastOnce bool) {
	name, hasName := "", false
	if len(args) > 0 {
		name, hasName = args[0], true
	}
	if err := client.OpA(name, hasName); err != nil {
		printErr("OP_A", err, atLeastOnce)
		return
	}
	fmt.Println("ok")
}

func handleOpB(client *booking.Client, args []string, atLeastOnce bool) {
	name, hasName := "", false
	if len(args) > 0 {
		name, hasName = args[0], true
	}
	id, err := client.OpB(name, hasName)
	if err != nil {
		printErr("OP_B", err, atLeastOnce)
		return
	}
	fmt.Printf("confirmation id: %d\n", id)
}

func handleSet(client *booking.Client, args []string, timeout time.Duration, retries int) (time.Duration, int) {
	if len(args) != 2 {
		fmt.Println("usage: set timeout <ms> | set retries <n>")
		return timeout, retries
	}
	switch args[0] {
	case "timeout":
		ms, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("invalid timeout: %v\n", err)
			return timeout, retries
		}
		timeout = time.Duration(ms) * time.Millisecond
		client.SetTimeout(timeout)
	case "retries":
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("invalid retries: %v\n", err)
			return timeout, retries
		}
		retries = n
		client.SetMaxRetries(retries)
	default:
		fmt.Println("usage: set timeout <ms> | set retries <n>")
	}
	return timeout, retries
}

func parseUint8s(args []string) ([]uint8, error) {
	out := make([]uint8, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid u8: %w", a, err)
		}
		out[i] = uint8(n)
	}
	return out, nil
}

func formatWeekInterval(b booking.WeekInterval) string {
	sDay, sHour, sMin := b.StartMinOfWeek/1440, (b.StartMinOfWeek%1440)/60, b.StartMinOfWeek%60
	eDay, eHour, eMin := b.EndMinOfWeek/1440, (b.EndMinOfWeek%1440)/60, b.EndMinOfWeek%60
	return fmt.Sprintf("day %d %02d:%02d - day %d %02d:%02d", sDay, sHour, sMin, eDay, eHour, eMin)
}

func printErr(op string, err error, atLeastOnce bool) {
	fmt.Printf("%s failed: %v\n", op, err)
	if atLeastOnce && booking.IsCode(err, booking.ErrCodeTimeout) {
		fmt.Println("warning: no reply after all retries under AT_LEAST_ONCE; the operation may have executed more than once")
	}
}

// parseSemantic resolves the --semantic flag to the advisory wire flag the
// client attaches to its own requests and to whether the operator has told
// us the server is running AT_LEAST_ONCE, which is what triggers the
// duplicate-effects warning on a timeout.
func parseSemantic(s string) (wireFlag uint8, atLeastOnce bool, err error) {
	switch strings.ToUpper(s) {
	case "AT_MOST_ONCE":
		return constants.SemanticAtMostOnce, false, nil
	case "AT_LEAST_ONCE":
		return constants.SemanticAtLeastOnce, true, nil
	default:
		return 0, false, fmt.Errorf("unrecognized semantic %q", s)
	}
}

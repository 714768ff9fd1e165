// Package helpers provides shared flag names and output helpers for the
// withdrawer CLI.
package helpers

import (
	"encoding/json"
	"fmt"
	"strconv"

	scfg "github.com/lumenlabs-io/stake-withdrawer/withdrawercfg"
)

const (
	WithdrawalAmountFlag = "amount"
	ValidatorFlag        = "validator"
	AccountIDFlag        = "account-id"
	MemoFlag             = "memo"
	DaemonAddressFlag    = "daemon-address"
)

var (
	DefaultDaemonAddress = "tcp://127.0.0.1:" + strconv.Itoa(scfg.DefaultRPCPort)
)

// PrintRespJSON pretty prints an RPC response to stdout.
func PrintRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Printf("%s\n", jsonBytes)
}

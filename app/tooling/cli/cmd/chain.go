package cmd

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the blocks in the chain",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/chain/list", url))
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Signal the node to mine the next block",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/mining/signal", url))
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the node to verify the whole chain",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/chain/verify", url))
	},
}

var mempoolCmd = &cobra.Command{
	Use:   "mempool",
	Short: "Print the uncommitted transactions",
	Run: func(cmd *cobra.Command, args []string) {
		get(fmt.Sprintf("%s/v1/tx/uncommitted/list", url))
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(mempoolCmd)
}

func get(url string) {
	resp, err := http.Get(url)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

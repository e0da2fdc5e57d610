// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// ethrpc-cli is a small example binary wiring config, provider and wallet
// together: a demonstration harness for the library, not a production
// wallet tool.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/r5-labs/ethrpc/ens"
	"github.com/r5-labs/ethrpc/opstack"
	"github.com/r5-labs/ethrpc/provider"
	"github.com/r5-labs/ethrpc/wallet"
)

var app = &cli.App{
	Name:  "ethrpc-cli",
	Usage: "example client for the ethrpc provider/wallet/ens/opstack packages",
	Flags: []cli.Flag{
		endpointFlag,
		ipcFlag,
		chainIDFlag,
	},
	Commands: []*cli.Command{
		commandBalance,
		commandSend,
		commandEnsResolve,
		commandOpstackGames,
	},
}

var (
	endpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Value: "http://127.0.0.1:8545",
		Usage: "HTTP/WS RPC endpoint (ignored when --ipc is set)",
	}
	ipcFlag = &cli.StringFlag{
		Name:  "ipc",
		Usage: "path to a Unix-domain IPC socket, overrides --endpoint",
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:  "chain-id",
		Value: 1,
		Usage: "chain id sent with every JSON-RPC request",
	}
	addressFlag = &cli.StringFlag{
		Name:     "address",
		Required: true,
		Usage:    "account address",
	}
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Required: true,
		Usage:    "hex-encoded private key, required for state-changing commands",
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Required: true,
		Usage:    "recipient address",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Value: "0",
		Usage: "value to send, in wei",
	}
	nameFlag = &cli.StringFlag{
		Name:     "name",
		Required: true,
		Usage:    "ENS name",
	}
	universalResolverFlag = &cli.StringFlag{
		Name:     "universal-resolver",
		Required: true,
		Usage:    "ENS universal resolver contract address",
	}
	portalFlag = &cli.StringFlag{
		Name:     "portal",
		Required: true,
		Usage:    "OptimismPortal contract address",
	}
	factoryFlag = &cli.StringFlag{
		Name:     "factory",
		Required: true,
		Usage:    "DisputeGameFactory contract address",
	}
	limitFlag = &cli.Uint64Flag{
		Name:  "limit",
		Value: 5,
		Usage: "number of dispute games to list",
	}
)

func networkConfig(c *cli.Context) (provider.NetworkConfig, error) {
	cfg := provider.DefaultNetworkConfig(provider.Endpoint{}, c.Uint64("chain-id"))
	if ipc := c.String("ipc"); ipc != "" {
		cfg.Endpoint = provider.NewIPCEndpoint(ipc)
		return cfg, nil
	}
	endpoint, err := provider.NewURIEndpoint(c.String("endpoint"))
	if err != nil {
		return provider.NetworkConfig{}, err
	}
	cfg.Endpoint = endpoint
	return cfg, nil
}

func dial(c *cli.Context) (*provider.Provider, error) {
	cfg, err := networkConfig(c)
	if err != nil {
		return nil, err
	}
	return provider.Dial(c.Context, cfg)
}

var commandBalance = &cli.Command{
	Name:  "balance",
	Usage: "query an account's latest balance",
	Flags: []cli.Flag{addressFlag},
	Action: func(c *cli.Context) error {
		p, err := dial(c)
		if err != nil {
			return err
		}
		defer p.Close()

		addr := common.HexToAddress(c.String("address"))
		balance, err := p.BalanceAt(context.Background(), addr, provider.Latest)
		if err != nil {
			return err
		}
		fmt.Println(balance.String())
		return nil
	},
}

var commandSend = &cli.Command{
	Name:  "send",
	Usage: "prepare, sign, and send a London (EIP-1559) value transfer",
	Flags: []cli.Flag{keyFlag, toFlag, valueFlag},
	Action: func(c *cli.Context) error {
		p, err := dial(c)
		if err != nil {
			return err
		}
		defer p.Close()

		key, err := crypto.HexToECDSA(c.String("key"))
		if err != nil {
			return err
		}
		signer := wallet.NewPrivateKeySigner(key)
		w := wallet.New(p, signer)

		to := common.HexToAddress(c.String("to"))
		value, ok := new(big.Int).SetString(c.String("value"), 10)
		if !ok {
			return fmt.Errorf("invalid --value %q", c.String("value"))
		}

		hash, err := w.Send(context.Background(), &wallet.UnpreparedTransactionEnvelope{
			Kind:  wallet.London,
			To:    &to,
			Value: value,
		})
		if err != nil {
			return err
		}
		log.Info("transaction submitted", "hash", hash)
		fmt.Println(hash.Hex())
		return nil
	},
}

var commandEnsResolve = &cli.Command{
	Name:  "ens-resolve",
	Usage: "resolve an ENS name to its address",
	Flags: []cli.Flag{nameFlag, universalResolverFlag},
	Action: func(c *cli.Context) error {
		p, err := dial(c)
		if err != nil {
			return err
		}
		defer p.Close()

		resolver := ens.New(p, common.HexToAddress(c.String("universal-resolver")))
		addr, err := resolver.GetAddress(context.Background(), c.String("name"))
		if err != nil {
			return err
		}
		fmt.Println(addr.Hex())
		return nil
	},
}

var commandOpstackGames = &cli.Command{
	Name:  "opstack-games",
	Usage: "list the most recent OP-Stack dispute games",
	Flags: []cli.Flag{portalFlag, factoryFlag, limitFlag},
	Action: func(c *cli.Context) error {
		cfg, err := networkConfig(c)
		if err != nil {
			return err
		}
		cfg.OpStackContracts = &provider.OpStackContractSet{
			OptimismPortal:     common.HexToAddress(c.String("portal")),
			DisputeGameFactory: common.HexToAddress(c.String("factory")),
		}
		p, err := provider.Dial(c.Context, cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		client, err := opstack.New(p)
		if err != nil {
			return err
		}
		games, err := client.GetGames(context.Background(), c.Uint64("limit"), nil)
		if err != nil {
			return err
		}
		for _, g := range games {
			fmt.Printf("game %d: type=%d l2Block=%d timestamp=%d proxy=%s\n",
				g.Index, g.GameType, g.L2BlockNumber, g.Timestamp, g.Proxy.Hex())
		}
		return nil
	},
}

func main() {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

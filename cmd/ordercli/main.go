// Command ordercli manages orders through the order service.
//
//	ordercli --token $TOKEN list [--all]
//	ordercli --token $TOKEN get 42
//	ordercli --token $TOKEN status 42 shipped
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gemmoherb/portal/pkg/config"
	"github.com/gemmoherb/portal/pkg/discovery"
	"github.com/gemmoherb/portal/pkg/grpc"
	"github.com/gemmoherb/portal/pkg/service"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.StringP("config", "c", "config/config.yaml", "path to the YAML configuration")
	token := flag.String("token", os.Getenv("PORTAL_TOKEN"), "session token")
	all := flag.Bool("all", false, "list every order (admin)")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ordercli [flags] list | get <id> | status <id> <status>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if os.Getenv("ORDERCLI_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}

	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		if sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger); err != nil {
			logger.Warn("etcd unavailable", zap.Error(err))
			sd = nil
		} else {
			defer sd.Close()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	manager := grpc.NewClientManager(cfg, logger, sd)
	if err := manager.Connect(ctx, grpc.WithToken(*token)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer manager.Close()

	if err := run(ctx, manager.OrderClient(), *all, flag.Args()); err != nil {
		err = grpc.FromStatus(err)
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, service.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "hint: pass --token or set PORTAL_TOKEN")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, client grpc.OrderClient, all bool, args []string) error {
	switch args[0] {
	case "list":
		resp, err := client.ListOrders(ctx, &grpc.ListOrdersRequest{All: all})
		if err != nil {
			return err
		}
		for _, o := range resp.Orders {
			fmt.Printf("%-10s %-10s %10s  %s\n", o.OrderNumber, o.Status, o.TotalTTC.StringFixed(2), o.CreatedAt.Format(time.DateTime))
		}
		return nil
	case "get":
		id, err := orderID(args)
		if err != nil {
			return err
		}
		resp, err := client.GetOrder(ctx, &grpc.GetOrderRequest{ID: id})
		if err != nil {
			return err
		}
		return printJSON(resp.Order)
	case "status":
		id, err := orderID(args)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("status requires <id> <status>")
		}
		resp, err := client.UpdateOrderStatus(ctx, &grpc.UpdateOrderStatusRequest{ID: id, Status: args[2]})
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", resp.Order.OrderNumber, resp.Order.Status)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func orderID(args []string) (uint, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires an order id", args[0])
	}
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q", args[1])
	}
	return uint(id), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

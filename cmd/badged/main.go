package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/badge.go/pkg/badge/env"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv()
	runner := fx.NewRunner().HandleSignals()
	if err := e.Start(runner.Context); err != nil {
		e.Close()
		glog.Fatalf("start: %v", err)
	}

	err := runner.Go(fx.NewLoop().Add(e)).Wait()
	<-e.Bridge.Done()
	if cerr := e.Close(); cerr != nil {
		glog.Errorf("close: %v", cerr)
	}
	if err != nil {
		glog.Fatal(err)
	}
}

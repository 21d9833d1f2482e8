// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"gitlab.com/postmarketOS/gnss_fix/internal/config"
	"gitlab.com/postmarketOS/gnss_fix/internal/gnss"
	"gitlab.com/postmarketOS/gnss_fix/internal/nmea"
	"gitlab.com/postmarketOS/gnss_fix/internal/pool"
	"gitlab.com/postmarketOS/gnss_fix/internal/publish"
	"gitlab.com/postmarketOS/gnss_fix/internal/server"
)

func usage() {
	flag.CommandLine.Usage()
}

func main() {
	var confFile string
	flag.StringVar(&confFile, "c", "/etc/gnss_fix.conf", "Configuration file to use.")
	var help bool
	flag.BoolVar(&help, "h", false, "Print help and quit.")

	flag.Usage = func() {
		fmt.Println("usage: gnss_fix [OPTION...] COMMAND [ARG...]")
		fmt.Println("Commands:")
		fmt.Printf("  %-12s\t%s\n", "[none]", "The default behavior if no command is specified is to run in \"server\" mode.")
		fmt.Printf("  %-12s\t%s\n", "decode", "Decode GGA/RMC lines given as arguments, or read from stdin, and print one JSON fix per line.")
		fmt.Println("Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if help {
		usage()
		return
	}

	switch cmd := flag.Arg(0); cmd {
	case "decode":
		log := logrus.New()
		log.SetOutput(os.Stderr)
		if err := decode(flag.Args()[1:], os.Stdin, os.Stdout, log); err != nil {
			log.Fatal(err)
		}
		return
	case "":
		// run mode
	default:
		fmt.Printf("Unknown command: %q\n", cmd)
		usage()
		return
	}

	conf, err := config.Parse(confFile)
	if err != nil {
		logrus.Fatal(err)
	}
	log := conf.Logger()

	if err := run(conf, log); err != nil {
		log.Fatal(err)
	}
}

func newSource(conf *config.Config, log logrus.FieldLogger) gnss.Source {
	switch conf.Driver {
	case config.DriverSerial:
		return gnss.NewSerial(conf.DevicePath, conf.BaudRate, log)
	case config.DriverStdin:
		return gnss.NewReader("stdin", os.Stdin, log)
	default:
		return gnss.NewDevice(conf.DevicePath, log)
	}
}

func run(conf *config.Config, log *logrus.Logger) error {
	connPool := pool.New()
	go connPool.Start()
	defer connPool.Stop()

	publishers := publish.Multi{publish.NewPool(connPool)}
	if conf.MQTT.Broker != "" {
		m, err := publish.DialMQTT(conf.MQTT, log)
		if err != nil {
			return fmt.Errorf("run(): %w", err)
		}
		defer m.Close()
		publishers = append(publishers, m)
	}

	srv := server.New(conf.Socket, conf.OwnerGroup, newSource(conf, log), nmea.NewDecoder(log), publishers, connPool, log)
	srv.AlwaysOn = conf.MQTT.Broker != ""
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("run(): %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("shutting down")
		srv.Close()
	}()

	return srv.Serve()
}

// decode prints a JSON fix for every decodable line. Lines that cannot be
// decoded are reported on the logger and skipped.
func decode(args []string, in io.Reader, out io.Writer, log logrus.FieldLogger) error {
	dec := nmea.NewDecoder(log)

	emit := func(line string) error {
		fix := dec.DecodeBestEffort(line)
		if fix == nil {
			return nil
		}
		// NaN and Inf decode fine but have no JSON form
		payload, err := json.Marshal(fix)
		if err != nil {
			log.WithError(err).WithField("line", line).Error("error encoding fix")
			return nil
		}
		_, err = out.Write(append(payload, '\n'))
		return err
	}

	if len(args) > 0 {
		for _, a := range args {
			if err := emit(a); err != nil {
				return fmt.Errorf("decode(): %w", err)
			}
		}
		return nil
	}

	lines := make(chan []byte)
	stop := make(chan bool)
	errCh := make(chan error, 1)
	go gnss.NewReader("stdin", in, log).Start(lines, stop, errCh)

	for {
		select {
		case line := <-lines:
			if err := emit(string(line)); err != nil {
				close(stop)
				return fmt.Errorf("decode(): %w", err)
			}
		case err := <-errCh:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode(): %w", err)
		}
	}
}

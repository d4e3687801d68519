package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/oqtopus-team/oqtopus-grover/amplify"
	"github.com/oqtopus-team/oqtopus-grover/circuit"
	"github.com/oqtopus-team/oqtopus-grover/qpu"
)

type qasmCmd struct {
	Qubits     int   `long:"qubits" short:"n" description:"register width" required:"true"`
	Targets    []int `long:"target" short:"t" description:"marked index (repeatable)" required:"true"`
	Iterations int   `long:"iterations" description:"rounds to emit (-1: optimal)" default:"-1"`
	Validate   bool  `long:"validate" description:"check the circuit against the device setting"`
}

func (c *qasmCmd) rounds() (int, error) {
	if c.Iterations >= 0 {
		return c.Iterations, nil
	}
	return amplify.OptimalIterations(c.Qubits, len(c.Targets))
}

func (c *qasmCmd) Execute(args []string) error {
	logger, s, err := prepare(grover.Conf)
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer s.TearDown()

	r, err := c.rounds()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to plan rounds/reason:%s", err))
		return err
	}
	circ, err := circuit.Grover(c.Qubits, c.Targets, r)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to build circuit/reason:%s", err))
		return err
	}
	if c.Validate {
		if err := qpu.ValidateCircuit(circ, s.GetDeviceInfo(), qpu.GetDeviceSetting()); err != nil {
			zap.L().Error(fmt.Sprintf("circuit is not runnable/reason:%s", err))
			return err
		}
	}
	st := circ.Stats()
	zap.L().Info(fmt.Sprintf("circuit/qubits:%d/rounds:%d/gates:%d/depth:%d", st.Qubits, st.Rounds, st.Total, st.Depth))
	_, err = fmt.Fprint(os.Stdout, circuit.QASM(circ))
	return err
}

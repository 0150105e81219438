package core

import (
	"fmt"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
)

type memLogger struct {
	msgs []string
}

func (m *memLogger) add(level, format string, args ...interface{}) {
	m.msgs = append(m.msgs, level+" "+fmt.Sprintf(format, args...))
}

func (m *memLogger) Debugf(format string, args ...interface{}) { m.add("DEBUG", format, args...) }
func (m *memLogger) Infof(format string, args ...interface{}) { m.add("INFO", format, args...) }
func (m *memLogger) Warningf(format string, args ...interface{}) { m.add("WARNING", format, args...) }
func (m *memLogger) Errorf(format string, args ...interface{}) { m.add("ERROR", format, args...) }
func (m *memLogger) Shutdown() {}

func (s *CoreSuite) TestLogModes(c *C) {
	mem := &memLogger{}
	saved, savedMode, savedVerbose := logger, mode, Verbose
	logger, Verbose = mem, false
	defer func() { logger, mode, Verbose = saved, savedMode, savedVerbose }()

	SetLogMode(WarningMode)
	Debugf("d")
	Infof("i")
	Warningf("w")
	Errorf("e")
	c.Assert(mem.msgs, DeepEquals, []string{"WARNING w", "ERROR e"})

	mem.msgs = nil
	Verbose = true
	Debugf("d")
	Infof("i")
	c.Assert(mem.msgs, DeepEquals, []string{"DEBUG d"})

	mem.msgs = nil
	Verbose = false
	SetLogMode(SilentMode)
	Errorf("e")
	c.Assert(mem.msgs, HasLen, 0)

	SetLogMode(InfoMode)
	NewTimeLog().Infof("moved %d labels", 3)
	c.Assert(mem.msgs, HasLen, 1)
	c.Assert(strings.HasPrefix(mem.msgs[0], "INFO moved 3 labels: "), Equals, true)
}

// Command armtui drives a virtual arm from the terminal. It has two control
// modes: manual, where the keyboard rotates one joint at a time, and a demo
// teleoperation mode that feeds a scripted target trajectory through the
// smoothing adapter and IK solver, the same path a live pose tracker would use.
package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/jessevdk/go-flags"

	"github.com/scenekit/armcore/arm"
	"github.com/scenekit/armcore/kinematics"
	"github.com/scenekit/armcore/referenceframe"
	"github.com/scenekit/armcore/utils"
)

type Options struct {
	Model string `long:"model" description:"Path to a kinematic model JSON file" default:""`
	Hz    int    `long:"hz" default:"30" description:"Control loop frequency"`
}

// Open gripper jaw width in meters; the grip scalar closes it linearly.
const maxGripperWidth = 0.04

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	teleopStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
)

type tickMsg time.Time

func tickEvery(hz int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(hz), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type armModel struct {
	state  *arm.State
	teleop *arm.Teleop
	hz     int

	teleopOn bool
	phase    float64
	grip     float64
	quitting bool
}

func (m *armModel) Init() tea.Cmd {
	return tickEvery(m.hz)
}

func (m *armModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6", "7":
			m.state.SelectJoint(int(msg.String()[0] - '1'))
		case "left", "h":
			if !m.teleopOn {
				m.state.RotateSelected(-arm.CoarseStep)
			}
		case "right", "l":
			if !m.teleopOn {
				m.state.RotateSelected(arm.CoarseStep)
			}
		case "shift+left", "H":
			if !m.teleopOn {
				m.state.RotateSelected(-arm.FineStep)
			}
		case "shift+right", "L":
			if !m.teleopOn {
				m.state.RotateSelected(arm.FineStep)
			}
		case "x", "y", "z":
			axis := int(msg.String()[0] - 'x')
			m.teleop.SetAxisLock(axis, !m.teleop.AxisLocks()[axis])
		case "r":
			m.state.ResetAll()
			m.teleop.Reset()
		case "g":
			if m.grip > 0 {
				m.grip = 0
			} else {
				m.grip = 1
			}
		case "t":
			// Entering teleop drops any stale state; leaving it drops the
			// buffered target so manual control is not fighting the solver.
			m.teleopOn = !m.teleopOn
			m.teleop.Reset()
		}
		return m, nil

	case tickMsg:
		if m.teleopOn {
			m.teleop.OnRawTarget(arm.TargetPose{Position: m.demoTarget(), Gripper: m.grip})
			m.phase += 2 * math.Pi / (4 * float64(m.hz))
		}
		m.teleop.Tick()
		return m, tickEvery(m.hz)
	}
	return m, nil
}

// demoTarget traces a slow circle in the XZ plane in front of the arm.
func (m *armModel) demoTarget() r3.Vector {
	return r3.Vector{
		X: 0.45 + 0.1*math.Cos(m.phase),
		Y: 0.1 * math.Sin(m.phase),
		Z: 0.45,
	}
}

func (m *armModel) View() string {
	if m.quitting {
		return "Stopped.\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("armtui"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  %s @ %d Hz", m.state.Model().Name(), m.hz)))
	sb.WriteString("\n\n")

	joints := m.state.Joints()
	visual := m.teleop.Visual()
	limits := m.state.Model().DoF()
	for i := range joints {
		line := fmt.Sprintf("joint %d  %+7.3f rad %+7.1f deg  (shown %+7.3f)  [%+.3f, %+.3f]",
			i+1, joints[i].Value, utils.RadToDeg(joints[i].Value), visual[i].Value, limits[i].Min, limits[i].Max)
		if i == m.state.Selected() && !m.teleopOn {
			sb.WriteString(selectedStyle.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if pose, err := m.state.EndEffector(); err == nil {
		pt := pose.Point()
		sb.WriteString(fmt.Sprintf("end effector  x %+.3f  y %+.3f  z %+.3f\n", pt.X, pt.Y, pt.Z))
	}

	width := maxGripperWidth * (1 - m.teleop.Gripper())
	grip := "open"
	if m.teleop.GripperClosed() {
		grip = "closed"
	}
	sb.WriteString(fmt.Sprintf("gripper       %s (%.0f mm)\n\n", grip, width*1000))

	if m.teleopOn {
		if target, ok := m.teleop.FilteredTarget(); ok {
			sb.WriteString(teleopStyle.Render("teleop") +
				fmt.Sprintf("  target x %+.3f  y %+.3f  z %+.3f", target.X, target.Y, target.Z))
		} else {
			sb.WriteString(teleopStyle.Render("teleop"))
		}
		locks := m.teleop.AxisLocks()
		var locked string
		for axis, name := range []string{"x", "y", "z"} {
			if locks[axis] {
				locked += name
			}
		}
		if locked != "" {
			sb.WriteString(statusStyle.Render("  locked: " + locked))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(statusStyle.Render("1-7 select  ←/→ rotate  shift fine  x/y/z lock  r reset  t teleop  g grip  q quit"))
	sb.WriteString("\n")
	return sb.String()
}

func run(opts Options) error {
	logger := golog.NewDevelopmentLogger("armtui")

	path := opts.Model
	if path == "" {
		path = utils.ResolveFile("models/panda.json")
	}
	model, err := referenceframe.ParseModelJSONFile(path, "")
	if err != nil {
		return err
	}
	state := arm.NewState(model)
	solver, err := kinematics.CreateGradientIKSolver(model, logger, nil)
	if err != nil {
		return err
	}
	teleop, err := arm.NewTeleop(state, solver, arm.TeleopConfig{}, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(&armModel{state: state, teleop: teleop, hz: opts.Hz})
	_, err = p.Run()
	return err
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

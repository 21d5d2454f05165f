package notify

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/pledge/internal/commitments"
	"github.com/JaimeStill/pledge/pkg/formatting"
)

const excerptLen = 120

// ReminderMessage renders the reminder an agent receives before a deadline.
func ReminderMessage(c commitments.Commitment, now time.Time, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("⏰ НАПОМИНАНИЕ ОБ ОБЕЩАНИИ\n\n")
	fmt.Fprintf(&b, "Ваше обещание: %s\n", formatting.Excerpt(c.Text, excerptLen))
	if c.Deadline != nil {
		fmt.Fprintf(&b, "Дедлайн: %s\n", c.Deadline.In(loc).Format("02.01 15:04"))
		fmt.Fprintf(&b, "Осталось: %s\n", remaining(c.Deadline.Sub(now)))
	}
	b.WriteString("\n❗️Клиент ждет. Выполните обещание или сообщите о задержке.")

	return b.String()
}

// EscalationMessage renders one aggregate escalation for a manager. Items
// are grouped per agent, most overdue first, with at most top items listed
// for each agent.
func EscalationMessage(batch []commitments.Commitment, now time.Time, top int) string {
	groups := make(map[string][]commitments.Commitment)
	for _, c := range batch {
		groups[c.AgentID] = append(groups[c.AgentID], c)
	}

	agents := make([]string, 0, len(groups))
	for agent := range groups {
		agents = append(agents, agent)
	}
	slices.Sort(agents)

	var b strings.Builder
	b.WriteString("🚨 ОБЕЩАНИЯ НЕ ВЫПОЛНЕНЫ\n")

	for _, agent := range agents {
		items := groups[agent]
		slices.SortStableFunc(items, func(x, y commitments.Commitment) int {
			return cmp.Compare(deadlineUnix(x), deadlineUnix(y))
		})

		fmt.Fprintf(&b, "\nМенеджер: %s\n", agent)
		fmt.Fprintf(&b, "Просрочено обещаний: %d\n", len(items))

		for i, c := range items {
			if i == top {
				fmt.Fprintf(&b, "и ещё %d\n", len(items)-top)
				break
			}
			fmt.Fprintf(&b, "%d. Обещание: %s\n", i+1, formatting.Excerpt(c.Text, excerptLen))
			if c.Deadline != nil {
				fmt.Fprintf(&b, "   Просрочено: %d ч.\n", max(0, int(now.Sub(*c.Deadline).Hours())))
			}
		}
	}

	b.WriteString("\n⚠️ Требуется вмешательство!")
	return b.String()
}

// SummaryMessage renders the daily summary for day (YYYY-MM-DD).
func SummaryMessage(s commitments.Stats, day string) string {
	label := day
	if t, err := time.Parse(time.DateOnly, day); err == nil {
		label = t.Format("02.01.2006")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 СВОДКА ПО ОБЕЩАНИЯМ за %s\n\n", label)
	fmt.Fprintf(&b, "Новых обещаний: %d\n", s.Created)
	fmt.Fprintf(&b, "Отправлено напоминаний: %d\n", s.RemindersSent)
	fmt.Fprintf(&b, "Эскалаций: %d\n", s.Escalated)
	fmt.Fprintf(&b, "Выполнено: %d\n", s.Fulfilled)
	fmt.Fprintf(&b, "Открытых просроченных: %d", s.OpenOverdue)
	return b.String()
}

func remaining(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d мин.", max(0, int(d.Minutes())))
	}
	return fmt.Sprintf("%d ч.", int(d.Hours()))
}

func deadlineUnix(c commitments.Commitment) int64 {
	if c.Deadline == nil {
		return 0
	}
	return c.Deadline.Unix()
}

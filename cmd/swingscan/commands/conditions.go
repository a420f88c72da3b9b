package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swinglab/swingscan/internal/kiwoom"
	"github.com/swinglab/swingscan/pkg/httputil"
)

// conditionsCmd represents the conditions command
var conditionsCmd = &cobra.Command{
	Use:   "conditions",
	Short: "HTS 저장 조건검색식 목록 조회",
	Long: `HTS에 저장된 조건검색식 목록을 조회합니다.

여기서 확인한 인덱스를 scan --mode condition --condition-idx 에 사용합니다.

Example:
  go run ./cmd/swingscan conditions
  go run ./cmd/swingscan conditions --keyword 단타`,
	RunE: runConditions,
}

var condKeyword string

func init() {
	rootCmd.AddCommand(conditionsCmd)

	// Flags
	conditionsCmd.Flags().StringVar(&condKeyword, "keyword", "", "조건식 이름 포함 필터")
}

func runConditions(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 조건검색식 목록 ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, _ := newRunLogger(cfg)

	httpClient := httputil.New(cfg, log)
	broker, err := kiwoom.NewClient(cfg.Kiwoom, httpClient, log)
	if err != nil {
		return fmt.Errorf("create kiwoom client: %w", err)
	}
	defer closeBroker(broker)

	conds, err := broker.Conditions(cmd.Context())
	if err != nil {
		return fmt.Errorf("list conditions: %w", err)
	}

	shown := 0
	fmt.Println()
	cols := []string{"인덱스", "seq", "조건식 이름"}
	widths := []int{6, 6, 30}
	PrintTableHeader(cols, widths)
	for i, cond := range conds {
		if condKeyword != "" && !strings.Contains(cond.Name, condKeyword) {
			continue
		}
		PrintTableRow([]string{strconv.Itoa(i), cond.Seq, cond.Name}, widths)
		shown++
	}
	fmt.Println()

	if shown == 0 {
		PrintWarning("조건식이 없습니다 (HTS에서 먼저 저장하세요)")
		return nil
	}

	PrintSuccess(fmt.Sprintf("%d개 조건식", shown))
	return nil
}

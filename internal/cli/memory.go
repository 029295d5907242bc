package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aisha-chat/aisha-go/internal/client"
)

var (
	memoryPersona   string
	memoryName      string
	memoryInterests []string
	memoryNotes     map[string]string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect or edit what a persona remembers",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile and recent conversation",
	Args:  cobra.NoArgs,
	RunE:  runMemoryShow,
}

var memoryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the stored user profile",
	Long: `Update the stored user profile for a persona.

Examples:
  aisha memory update --name "Sonu"
  aisha memory update -p gojo --interests anime,cooking
  aisha memory update --note birthday=march`,
	Args: cobra.NoArgs,
	RunE: runMemoryUpdate,
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memoryPersona, "persona", "p", "", "persona whose memory to use (default: default)")
	memoryUpdateCmd.Flags().StringVar(&memoryName, "name", "", "your name")
	memoryUpdateCmd.Flags().StringSliceVar(&memoryInterests, "interests", nil, "replace the interests list")
	memoryUpdateCmd.Flags().StringToStringVar(&memoryNotes, "note", nil, "add or overwrite a note (key=value)")

	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryUpdateCmd)
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	mem, err := api.GetMemory(context.Background(), memoryPersona)
	if err != nil {
		return err
	}
	printMemory(mem)
	return nil
}

func runMemoryUpdate(cmd *cobra.Command, args []string) error {
	update := client.ProfileUpdate{
		Interests: memoryInterests,
		Notes:     memoryNotes,
	}
	if cmd.Flags().Changed("name") {
		update.Name = &memoryName
	}

	mem, err := api.UpdateMemory(context.Background(), memoryPersona, update)
	if err != nil {
		return err
	}
	fmt.Println("Updated.")
	printMemory(mem)
	return nil
}

func printMemory(mem *client.Memory) {
	theme := defaultTheme

	name := "(unknown)"
	if mem.User.Name != nil {
		name = *mem.User.Name
	}
	fmt.Printf("Name:      %s\n", name)

	if len(mem.User.Interests) > 0 {
		fmt.Printf("Interests: %v\n", mem.User.Interests)
	}
	for k, v := range mem.User.Notes {
		fmt.Printf("Note:      %s = %s\n", k, v)
	}

	if len(mem.Conversations) == 0 {
		fmt.Println(theme.hintStyle().Render("No conversation history."))
		return
	}

	fmt.Printf("\nLast %d turns:\n", len(mem.Conversations))
	for _, turn := range mem.Conversations {
		fmt.Printf("  %-9s %s\n", turn.Role+":", turn.Message)
	}
}
